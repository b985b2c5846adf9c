package main

import (
	"os"

	"medilocator/internal/cli"
)

// @title MediLocator API
// @version 1.0
// @description Inventario de medicamentos con ubicación física, planes de tratamiento y búsqueda.
// @BasePath /
func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
