package main

import (
	"context"
	"log"

	"github.com/agropath/farmauth/internal/server"
	"github.com/agropath/farmauth/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
