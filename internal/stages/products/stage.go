// Package products implements the gold-layer product aggregator and the
// category/brand roll-ups chained off it. Product rows aggregate cleaned
// events; category and brand rows are second-stage roll-ups over product
// rows, never over raw events.
package products

import (
	"context"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/stages"
)

// Mart table names.
const (
	ProductTable  = "product_performance"
	CategoryTable = "category_performance"
	BrandTable    = "brand_performance"
)

type productStage struct{}

// NewProduct creates the product aggregation stage.
func NewProduct() stages.Stage {
	return productStage{}
}

func (productStage) Name() string  { return "product_performance" }
func (productStage) Layer() string { return stages.LayerGold }

func (productStage) Description() string {
	return "Aggregate cleaned events per product; derive conversion rates and dead-stock flag"
}

func (productStage) DependsOn() []string { return []string{"cleaned_events"} }

func (productStage) Tables() []string { return []string{ProductTable} }

func (productStage) Build(ctx context.Context, eng db.Engine) ([]stages.BuildResult, error) {
	res, err := stages.BuildTable(ctx, eng, ProductTable, ProductQuery(eng.Dialect()))
	if err != nil {
		return nil, err
	}
	return []stages.BuildResult{res}, nil
}

type categoryStage struct{}

// NewCategory creates the category roll-up stage.
func NewCategory() stages.Stage {
	return categoryStage{}
}

func (categoryStage) Name() string  { return "category_performance" }
func (categoryStage) Layer() string { return stages.LayerGold }

func (categoryStage) Description() string {
	return "Roll product performance up to categories"
}

func (categoryStage) DependsOn() []string { return []string{"product_performance"} }

func (categoryStage) Tables() []string { return []string{CategoryTable} }

func (categoryStage) Build(ctx context.Context, eng db.Engine) ([]stages.BuildResult, error) {
	res, err := stages.BuildTable(ctx, eng, CategoryTable, CategoryQuery(eng.Dialect()))
	if err != nil {
		return nil, err
	}
	return []stages.BuildResult{res}, nil
}

type brandStage struct{}

// NewBrand creates the brand roll-up stage.
func NewBrand() stages.Stage {
	return brandStage{}
}

func (brandStage) Name() string  { return "brand_performance" }
func (brandStage) Layer() string { return stages.LayerGold }

func (brandStage) Description() string {
	return "Roll product performance up to brands"
}

func (brandStage) DependsOn() []string { return []string{"product_performance"} }

func (brandStage) Tables() []string { return []string{BrandTable} }

func (brandStage) Build(ctx context.Context, eng db.Engine) ([]stages.BuildResult, error) {
	res, err := stages.BuildTable(ctx, eng, BrandTable, BrandQuery(eng.Dialect()))
	if err != nil {
		return nil, err
	}
	return []stages.BuildResult{res}, nil
}

func init() {
	stages.Register(NewProduct())
	stages.Register(NewCategory())
	stages.Register(NewBrand())
}
