package stitch

import "reflect"

// Module groups registrations so they can be applied to a container as a
// unit. Included modules are applied first.
type Module struct {
	name          string
	registrations []registration
	submodules    []*Module
}

type registration struct {
	register func(c *Container) error
}

func NewModule(name string) *Module {
	return &Module{
		name: name,
	}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Register(abstract, concrete reflect.Type, lifestyle Lifestyle, opts ...BindingOption) *Module {
	m.registrations = append(
		m.registrations, registration{
			register: func(c *Container) error {
				return c.Register(abstract, concrete, lifestyle, opts...)
			},
		},
	)
	return m
}

func (m *Module) Include(submodule *Module) *Module {
	m.submodules = append(m.submodules, submodule)
	return m
}

func (m *Module) apply(c *Container) error {
	for _, sub := range m.submodules {
		if err := sub.apply(c); err != nil {
			return err
		}
	}

	for _, r := range m.registrations {
		if err := r.register(c); err != nil {
			return err
		}
	}

	return nil
}

func (c *Container) Apply(modules ...*Module) error {
	for _, m := range modules {
		if err := m.apply(c); err != nil {
			return errModuleApplyFailed(m.name, err)
		}
	}
	return nil
}

func errModuleApplyFailed(moduleName string, cause error) *Error {
	return newError(
		ErrCodeModuleApplyFailed,
		"failed to apply module "+moduleName,
		cause,
	)
}

func ModuleBind[I, T any](m *Module, lifestyle Lifestyle, opts ...BindingOption) *Module {
	m.registrations = append(
		m.registrations, registration{
			register: func(c *Container) error {
				return Bind[I, T](c, lifestyle, opts...)
			},
		},
	)
	return m
}

func ModuleBindSelf[T any](m *Module, lifestyle Lifestyle, opts ...BindingOption) *Module {
	m.registrations = append(
		m.registrations, registration{
			register: func(c *Container) error {
				return BindSelf[T](c, lifestyle, opts...)
			},
		},
	)
	return m
}

func ModuleCollection[I any](m *Module, lifestyle Lifestyle, concretes ...reflect.Type) *Module {
	m.registrations = append(
		m.registrations, registration{
			register: func(c *Container) error {
				return RegisterCollection[I](c, lifestyle, concretes...)
			},
		},
	)
	return m
}
