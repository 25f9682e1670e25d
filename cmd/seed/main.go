package main

import (
	"fmt"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/infra/db"
	"app/internal/logging"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// ローカル開発用の初期データ投入。
func main() {
	_ = godotenv.Load()

	log := logging.New()

	gormDB, err := db.Connect(config.LoadDatabase())
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		panic(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), 12)
	if err != nil {
		panic(err)
	}

	users := []model.User{
		{Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)},
		{Username: "bob", Email: "bob@example.com", PasswordHash: string(hash)},
	}
	for i := range users {
		if err := gormDB.Where("email = ?", users[i].Email).FirstOrCreate(&users[i]).Error; err != nil {
			panic(err)
		}
	}

	products := []model.Product{
		{Name: "Laptop", Price: decimal.NewFromFloat(999.99), Stock: 10, Description: "15-inch laptop"},
		{Name: "Phone", Price: decimal.NewFromFloat(599.00), Stock: 25, Description: "Smartphone"},
		{Name: "Headphones", Price: decimal.NewFromFloat(79.50), Stock: 100, Description: "Over-ear headphones"},
		{Name: "Keyboard", Price: decimal.NewFromFloat(45.00), Stock: 50, Description: "Mechanical keyboard"},
		{Name: "Monitor", Price: decimal.NewFromFloat(249.90), Stock: 15, Description: "27-inch monitor"},
	}
	for i := range products {
		if err := gormDB.Where("name = ?", products[i].Name).FirstOrCreate(&products[i]).Error; err != nil {
			panic(err)
		}
	}

	log.Info("seed done", "users", len(users), "products", len(products))
	fmt.Println("seeded")
}
