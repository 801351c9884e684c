package main

import "github.com/promociones-residenciales/reservas/backend/cmd"

func main() {
	cmd.Execute()
}
