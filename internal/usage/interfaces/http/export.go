package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	usage "energymeter-cloud/internal/usage/domain"
)

// BuildUsageReportPDF renders a minimal PDF for a usage report.
func BuildUsageReportPDF(report *usage.UsageReport, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Usage Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Devices: %d", report.TotalDevices))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Readings: %d", report.TotalReadings))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Power (W): %.2f", report.TotalPowerUsage))
	pdf.Ln(8)

	// Device table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Device", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Location", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Total (W)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Avg V", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Avg A", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Count", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, record := range report.Devices {
		pdf.CellFormat(45, 6, record.DeviceName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, record.DeviceLocation, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.TotalPower), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.AvgVoltage), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", record.AvgCurrent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", record.ReadingCount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildUsageReportXLSX renders a minimal XLSX for a usage report.
func BuildUsageReportXLSX(report *usage.UsageReport, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	devicesSheet := "devices"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(devicesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Energy Usage Report")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", generatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Devices")
	_ = f.SetCellValue(summarySheet, "B4", report.TotalDevices)
	_ = f.SetCellValue(summarySheet, "A5", "Readings")
	_ = f.SetCellValue(summarySheet, "B5", report.TotalReadings)
	_ = f.SetCellValue(summarySheet, "A6", "Total Power (W)")
	_ = f.SetCellValue(summarySheet, "B6", report.TotalPowerUsage)

	_ = f.SetCellValue(devicesSheet, "A1", "Device")
	_ = f.SetCellValue(devicesSheet, "B1", "Location")
	_ = f.SetCellValue(devicesSheet, "C1", "Total Power (W)")
	_ = f.SetCellValue(devicesSheet, "D1", "Avg Voltage (V)")
	_ = f.SetCellValue(devicesSheet, "E1", "Avg Current (A)")
	_ = f.SetCellValue(devicesSheet, "F1", "Readings")
	_ = f.SetCellValue(devicesSheet, "G1", "Last Reading")
	_ = f.SetCellValue(devicesSheet, "H1", "Last Power (W)")
	for i, record := range report.Devices {
		row := i + 2
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("A%d", row), record.DeviceName)
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("B%d", row), record.DeviceLocation)
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("C%d", row), record.TotalPower)
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("D%d", row), record.AvgVoltage)
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("E%d", row), record.AvgCurrent)
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("F%d", row), record.ReadingCount)
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("G%d", row), record.LastReading.Timestamp.Format(time.RFC3339))
		_ = f.SetCellValue(devicesSheet, fmt.Sprintf("H%d", row), record.LastReading.Power)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
