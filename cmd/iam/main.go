package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/authbridge/internal/iam"
	"github.com/dmitrijs2005/authbridge/internal/iam/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := iam.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
