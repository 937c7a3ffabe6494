package productcontroller

import (
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/response"
	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/tealeg/xlsx"
)

// ExportProductsToExcel downloads the catalog as products.xlsx.
func ExportProductsToExcel(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := store.List(c.Request.Context(), c.Query("category"))
		if err != nil {
			response.Error(c, err)
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Products")
		if err != nil {
			response.Error(c, errs.Internal("Failed to create Excel sheet", err))
			return
		}

		headers := []string{
			"ID", "Name", "Description", "Category", "Price", "Discount %",
			"Discounted Price", "Rating", "Stock", "Image", "CreatedAt", "UpdatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, p := range products {
			row := sheet.AddRow()

			row.AddCell().SetValue(p.ID)
			row.AddCell().SetValue(p.Name)
			row.AddCell().SetValue(p.Description)
			row.AddCell().SetValue(string(p.Category))
			row.AddCell().SetFloat(p.Price.InexactFloat64())
			if p.Discount.Valid {
				row.AddCell().SetFloat(p.Discount.Decimal.InexactFloat64())
			} else {
				row.AddCell()
			}
			row.AddCell().SetFloat(p.DiscountedPrice().InexactFloat64())
			if p.Rating != nil {
				row.AddCell().SetInt(*p.Rating)
			} else {
				row.AddCell()
			}
			row.AddCell().SetInt(p.Stock)
			row.AddCell().SetValue(p.Image)
			row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
