package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	log         *slog.Logger
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, log *slog.Logger) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, log: log}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       *int64
	ImageURL    string
}

type UpdateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, &InvalidArgumentError{Reason: "invalid page"}
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, &InvalidArgumentError{Reason: "invalid limit"}
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, &InvalidArgumentError{Reason: "q too long"}
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, &InvalidArgumentError{Reason: "min_price must be >= 0"}
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, &InvalidArgumentError{Reason: "max_price must be >= 0"}
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, &InvalidArgumentError{Reason: "min_price must be <= max_price"}
	}
	switch in.Sort {
	case "", "new", "name", "-name", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, &InvalidArgumentError{Reason: "invalid sort"}
	}

	items, total, err := u.productRepo.ListInStock(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, &InvalidArgumentError{Reason: "invalid product id"}
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, &NotFoundError{Resource: "product", ID: productID}
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return p, nil
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, userID int64, in CreateProductInput) (model.Product, error) {
	if userID <= 0 {
		return model.Product{}, ErrUnauthorized
	}
	if err := validateProductFields(in.Name, in.Price); err != nil {
		return model.Product{}, err
	}

	//在庫未指定ならデフォルト10
	stock := int64(10)
	if in.Stock != nil {
		if *in.Stock < 0 {
			return model.Product{}, &InvalidArgumentError{Reason: "stock must be >= 0"}
		}
		stock = *in.Stock
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       stock,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, userID int64, productID int64, in UpdateProductInput) (model.Product, error) {
	if userID <= 0 {
		return model.Product{}, ErrUnauthorized
	}
	if productID <= 0 {
		return model.Product{}, &InvalidArgumentError{Reason: "invalid product id"}
	}
	if err := validateProductFields(in.Name, in.Price); err != nil {
		return model.Product{}, err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		ImageURL:    in.ImageURL,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, &NotFoundError{Resource: "product", ID: productID}
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return u.GetProductDetail(ctx, productID)
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if productID <= 0 {
		return &InvalidArgumentError{Reason: "invalid product id"}
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return &NotFoundError{Resource: "product", ID: productID}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u.log.Info("product deleted", "product_id", productID)
	return nil
}

func validateProductFields(name string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return &InvalidArgumentError{Reason: "invalid name"}
	}
	if !price.IsPositive() {
		return &InvalidArgumentError{Reason: "price must be > 0"}
	}
	return nil
}
