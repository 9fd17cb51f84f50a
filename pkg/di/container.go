// Package di provides dependency injection container
package di

import (
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/accounts" //nolint:depguard
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/api"      //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	backendFactory accounts.BackendFactory
	serverFactory  api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		backendFactory: accounts.NewBackendFactory(),
		serverFactory:  api.NewServerFactory(),
	}
}

// GetBackendFactory returns the account backend factory
func (c *Container) GetBackendFactory() accounts.BackendFactory {
	return c.backendFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetBackendFactory allows overriding the backend factory (for testing)
func (c *Container) SetBackendFactory(factory accounts.BackendFactory) {
	c.backendFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
