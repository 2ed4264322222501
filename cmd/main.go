// cmd/main.go
package main

import (
	"card-game-api/app"

	_ "card-game-api/docs"
)

// @title           Card Game API
// @version         1.0
// @description     Authentication and token-lifecycle service for the card-game deck builder.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
