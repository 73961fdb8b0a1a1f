//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package products

import (
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// pickRepresentative is the tie-break for products whose events carry more
// than one category or brand label (a data-quality artifact in clickstream
// exports): the greatest value wins. Named so the rule stays explicit rather
// than leaning on engine-specific aggregate behavior.
func pickRepresentative(expr string) string {
	return fmt.Sprintf("MAX(%s)", expr)
}

// ProductQuery renders the product aggregation over cleaned_events.
//
// The three conversion ratios divide with NULLIF denominators: a product
// with zero views has NULL view_to_cart_rate and view_to_purchase_rate,
// never a division fault. never_purchased is purely purchases_count = 0.
func ProductQuery(d db.Dialect) string {
	views := d.CountIf("event_type = 'view'")
	carts := d.CountIf("event_type = 'cart'")
	purchases := d.CountIf("event_type = 'purchase'")

	return fmt.Sprintf(`SELECT
    product_id,
    %[1]s AS category_id,
    %[2]s AS category_code,
    %[3]s AS brand,
    %[4]s AS avg_price,
    %[5]s AS views_count,
    %[6]s AS cart_adds_count,
    %[7]s AS removes_count,
    %[8]s AS purchases_count,
    %[9]s AS unique_viewers,
    %[10]s AS unique_cart_users,
    %[11]s AS unique_buyers,
    %[12]s AS total_revenue,
    %[6]s * 1.0 / NULLIF(%[5]s, 0) AS view_to_cart_rate,
    %[8]s * 1.0 / NULLIF(%[6]s, 0) AS cart_to_purchase_rate,
    %[8]s * 1.0 / NULLIF(%[5]s, 0) AS view_to_purchase_rate,
    %[8]s = 0 AS never_purchased
FROM cleaned_events
GROUP BY product_id`,
		pickRepresentative("category_id"),
		pickRepresentative("category_code"),
		pickRepresentative("brand"),
		d.Round2("AVG(price)"),
		views,
		carts,
		d.CountIf("event_type = 'remove_from_cart'"),
		purchases,
		d.CountDistinctIf("user_id", "event_type = 'view'"),
		d.CountDistinctIf("user_id", "event_type = 'cart'"),
		d.CountDistinctIf("user_id", "event_type = 'purchase'"),
		d.SumIf("price", "event_type = 'purchase'"),
	)
}

// CategoryQuery rolls product_performance up to category_code.
//
// Rate columns are averaged product rates (average-of-averages). That is a
// deliberate statistical approximation inherited from the published reports;
// recomputing them from summed counts would silently change report numbers.
func CategoryQuery(d db.Dialect) string {
	return rollupQuery(d, "category_code", "category_revenue")
}

// BrandQuery rolls product_performance up to brand.
func BrandQuery(d db.Dialect) string {
	return rollupQuery(d, "brand", "brand_revenue")
}

func rollupQuery(d db.Dialect, key, revenueAlias string) string {
	return fmt.Sprintf(`SELECT
    %[1]s,
    COUNT(*) AS products_count,
    SUM(views_count) AS views_count,
    SUM(cart_adds_count) AS cart_adds_count,
    SUM(purchases_count) AS purchases_count,
    SUM(total_revenue) AS %[2]s,
    AVG(avg_price) AS avg_product_price,
    AVG(view_to_cart_rate) AS avg_view_to_cart_rate,
    AVG(cart_to_purchase_rate) AS avg_cart_to_purchase_rate,
    AVG(view_to_purchase_rate) AS avg_view_to_purchase_rate,
    %[3]s AS dead_stock_count
FROM product_performance
GROUP BY %[1]s`,
		key,
		revenueAlias,
		d.CountIf("views_count > 0 AND purchases_count = 0"),
	)
}
