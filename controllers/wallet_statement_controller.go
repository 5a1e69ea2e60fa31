package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"

	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
)

type statementSummary struct {
	TotalCredits   int64
	TotalDebits    int64
	ClosingBalance int64
	Entries        int
}

func loadStatement(c *gin.Context) (*models.Wallet, []models.WalletTransaction, *statementSummary, error) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return nil, nil, nil, fmt.Errorf("user not in context")
	}
	user := userVal.(models.User)

	wallet, err := ledger.GetOrCreateWallet(config.DB, models.WalletOwnerUser, user.ID, nil)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", nil)
		return nil, nil, nil, err
	}

	var transactions []models.WalletTransaction
	if err := config.DB.Where("wallet_id = ?", wallet.ID).Order("created_at ASC").Find(&transactions).Error; err != nil {
		utils.LogError("Failed to fetch transactions for wallet ID: %d: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to fetch transactions", nil)
		return nil, nil, nil, err
	}

	summary := &statementSummary{ClosingBalance: wallet.Balance, Entries: len(transactions)}
	for _, txn := range transactions {
		if txn.Direction == models.TransactionDirectionCredit {
			summary.TotalCredits += txn.Amount
		} else {
			summary.TotalDebits += txn.Amount
		}
	}
	return wallet, transactions, summary, nil
}

// DownloadWalletStatementExcel exports the wallet ledger as an Excel file
func DownloadWalletStatementExcel(c *gin.Context) {
	utils.LogInfo("DownloadWalletStatementExcel called")

	_, transactions, summary, err := loadStatement(c)
	if err != nil {
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Wallet Statement")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", nil)
		return
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString("PLATEFUL - Wallet Statement")
	dateRow := sheet.AddRow()
	dateRow.AddCell().SetString("Generated: " + time.Now().Format("2006-01-02 15:04"))
	sheet.AddRow() // spacing

	headers := []string{"ID", "Date", "Type", "Direction", "Amount", "Balance After", "Order", "Reference"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	for _, txn := range transactions {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(txn.ID))
		row.AddCell().SetString(txn.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetString(txn.Type)
		row.AddCell().SetString(txn.Direction)
		row.AddCell().SetFloat(float64(txn.Amount) / 100)
		row.AddCell().SetFloat(float64(txn.BalanceAfter) / 100)
		if txn.OrderID != nil {
			row.AddCell().SetInt(int(*txn.OrderID))
		} else {
			row.AddCell().SetString("-")
		}
		row.AddCell().SetString(txn.Reference)
	}

	sheet.AddRow() // spacing
	summaryData := [][]string{
		{"Entries", fmt.Sprintf("%d", summary.Entries)},
		{"Total Credits", fmt.Sprintf("%.2f", float64(summary.TotalCredits)/100)},
		{"Total Debits", fmt.Sprintf("%.2f", float64(summary.TotalDebits)/100)},
		{"Closing Balance", fmt.Sprintf("%.2f", float64(summary.ClosingBalance)/100)},
	}
	for _, data := range summaryData {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=wallet_statement.xlsx")
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		utils.InternalServerError(c, "Failed to write Excel file", nil)
		return
	}
	utils.LogInfo("Generated Excel wallet statement")
}

// DownloadWalletStatementPDF exports the wallet ledger as a PDF
func DownloadWalletStatementPDF(c *gin.Context) {
	utils.LogInfo("DownloadWalletStatementPDF called")

	_, transactions, summary, err := loadStatement(c)
	if err != nil {
		return
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(0, 12, "PLATEFUL - Wallet Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Generated: "+time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	headers := []string{"ID", "Date", "Type", "Direction", "Amount", "Balance After", "Order", "Reference"}
	colWidths := []float64{15, 35, 35, 25, 30, 30, 20, 70}
	pdf.SetFont("Arial", "B", 11)
	for i, h := range headers {
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(colWidths[i], 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	fill := false
	for _, txn := range transactions {
		pdf.SetFillColor(245, 245, 245)
		if fill {
			pdf.SetFillColor(230, 240, 255)
		}
		fill = !fill
		orderRef := "-"
		if txn.OrderID != nil {
			orderRef = fmt.Sprintf("%d", *txn.OrderID)
		}
		pdf.CellFormat(colWidths[0], 8, fmt.Sprintf("%d", txn.ID), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[1], 8, txn.CreatedAt.Format("2006-01-02 15:04"), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[2], 8, txn.Type, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(colWidths[3], 8, txn.Direction, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[4], 8, fmt.Sprintf("%.2f", float64(txn.Amount)/100), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(colWidths[5], 8, fmt.Sprintf("%.2f", float64(txn.BalanceAfter)/100), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(colWidths[6], 8, orderRef, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[7], 8, txn.Reference, "1", 0, "L", fill, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 13)
	pdf.SetFillColor(220, 230, 250)
	pdf.CellFormat(70, 10, "Summary", "1", 0, "C", true, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	pdf.SetFillColor(255, 255, 255)
	pdf.CellFormat(50, 8, "Entries", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", summary.Entries), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.CellFormat(50, 8, "Total Credits", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", float64(summary.TotalCredits)/100), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.CellFormat(50, 8, "Total Debits", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", float64(summary.TotalDebits)/100), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.CellFormat(50, 8, "Closing Balance", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", float64(summary.ClosingBalance)/100), "1", 0, "R", false, 0, "")

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "attachment; filename=wallet_statement.pdf")
	if err := pdf.Output(c.Writer); err != nil {
		utils.LogError("Failed to write PDF file: %v", err)
		utils.InternalServerError(c, "Failed to write PDF file", nil)
		return
	}
	utils.LogInfo("Generated PDF wallet statement")
}
