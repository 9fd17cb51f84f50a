/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/pantha704/blueshift-pinocchio-escrow/cmd/escrow/cmd"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
