package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/models"
)

// GET /admin/orders/export
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderNo", "UserID", "Status", "TotalAmount", "FreightAmount", "PayAmount",
			"Receiver", "Phone", "Address", "Product", "UnitPrice", "Quantity", "Subtotal", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		// One row per line item, order columns repeated.
		for _, o := range orders {
			for _, item := range o.Items {
				row := sheet.AddRow()
				row.AddCell().SetValue(o.OrderNo)
				row.AddCell().SetValue(o.UserID)
				row.AddCell().SetValue(string(o.Status))
				row.AddCell().SetValue(o.TotalAmount.String())
				row.AddCell().SetValue(o.FreightAmount.String())
				row.AddCell().SetValue(o.PayAmount.String())
				row.AddCell().SetValue(o.ReceiverName)
				row.AddCell().SetValue(o.ReceiverPhone)
				row.AddCell().SetValue(o.ReceiverAddress)
				row.AddCell().SetValue(item.ProductName)
				row.AddCell().SetValue(item.UnitPrice.String())
				row.AddCell().SetValue(item.Quantity)
				row.AddCell().SetValue(item.Subtotal.String())
				row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
			}
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
