package order

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"Order ID", "Customer", "Email", "Phone", "Address", "Payment Method",
	"Status", "Items", "Total Amount", "Notification", "Created At",
}

// Export writes every order as an xlsx workbook with one row per order.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	orders, err := s.List(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return errs.Internal("failed to create sheet", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(o.ID))
		if o.User != nil {
			row.AddCell().SetString(o.User.Name)
			row.AddCell().SetString(o.User.Email)
		} else {
			row.AddCell()
			row.AddCell()
		}
		row.AddCell().SetString(o.PhoneNumber)
		row.AddCell().SetString(o.Address)
		row.AddCell().SetString(string(o.PaymentMethod))
		row.AddCell().SetString(string(o.Status))

		items := make([]string, 0, len(o.Products))
		for _, item := range o.Products {
			name := fmt.Sprintf("#%d", item.ProductID)
			if item.Product != nil {
				name = item.Product.Name
			}
			items = append(items, fmt.Sprintf("%s x%d", name, item.Quantity))
		}
		row.AddCell().SetString(strings.Join(items, ", "))

		row.AddCell().SetFloat(o.TotalAmount.InexactFloat64())
		row.AddCell().SetString(string(o.NotificationStatus))
		row.AddCell().SetString(o.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return errs.Internal("failed to write workbook", err)
	}
	return nil
}
