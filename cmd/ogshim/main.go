package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/shakilemon73/Tni-news-sub001/cmd"
)

func main() {
	// A .env file is optional.
	_ = godotenv.Load()
	cmd.Execute(context.Background())
}
