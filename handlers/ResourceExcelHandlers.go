package handlers

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"siteguard/models"
	"siteguard/services"
)

const resourceSheet = "Resources"

var resourceColumns = []string{"Name", "Quantity", "Unit", "Threshold", "Status"}

// ExportResourcesXLSX godoc
// @Summary      Download the inventory as an Excel workbook
// @Tags         resources
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {file}    file
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources/export [get]
func ExportResourcesXLSX(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		w, err := svc.GetWorkspace(ctx, currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		f := excelize.NewFile()
		defer f.Close()

		index, err := f.NewSheet(resourceSheet)
		if err != nil {
			respondError(c, fmt.Errorf("create sheet: %w", err))
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		for i, title := range resourceColumns {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(resourceSheet, cell, title)
		}
		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Family: "Arial"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		})
		if err == nil {
			f.SetCellStyle(resourceSheet, "A1", "E1", headerStyle)
		}
		f.SetColWidth(resourceSheet, "A", "A", 30)
		f.SetColWidth(resourceSheet, "B", "E", 14)

		for i, r := range w.Resources {
			row := i + 2
			f.SetCellValue(resourceSheet, fmt.Sprintf("A%d", row), r.Name)
			f.SetCellValue(resourceSheet, fmt.Sprintf("B%d", row), r.Quantity)
			f.SetCellValue(resourceSheet, fmt.Sprintf("C%d", row), r.Unit)
			f.SetCellValue(resourceSheet, fmt.Sprintf("D%d", row), r.Threshold)
			f.SetCellValue(resourceSheet, fmt.Sprintf("E%d", row), string(r.Status))
		}

		filename := fmt.Sprintf("inventory_%s.xlsx", services.SafeFilename(w.Name))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
		if err := f.Write(c.Writer); err != nil {
			respondError(c, fmt.Errorf("write workbook: %w", err))
			return
		}
	}
}

// ImportResourcesXLSX godoc
// @Summary      Replace the inventory from an Excel workbook
// @Description  The first sheet needs Name, Quantity and Threshold columns; Unit is optional and Status is ignored.
// @Tags         resources
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Workspace ID"
// @Param        file  formData  file    true  "xlsx workbook"
// @Success      200   {object}  models.Response{data=[]models.ResourceItem}
// @Failure      400   {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/resources/import [post]
func ImportResourcesXLSX(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "validation_error", "file not found")
			return
		}
		src, err := file.Open()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "validation_error", "unable to open file")
			return
		}
		defer src.Close()

		f, err := excelize.OpenReader(src)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "validation_error", "file is not a valid xlsx workbook")
			return
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			abortWithError(c, http.StatusBadRequest, "validation_error", "workbook has no sheets")
			return
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		reqs, err := parseResourceRows(rows)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		res, err := svc.ReplaceResources(c.Request.Context(), currentUserID(c), c.Param("id"), reqs)
		if err != nil {
			respondError(c, err)
			return
		}
		respondResult(c, http.StatusOK, res)
	}
}

// parseResourceRows reads a header row followed by resource rows. Blank rows
// are skipped.
func parseResourceRows(rows [][]string) ([]models.ResourceRequest, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	columnIndices := make(map[string]int)
	for i, col := range rows[0] {
		columnIndices[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"name", "quantity", "threshold"} {
		if _, ok := columnIndices[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := columnIndices[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		reqs    []models.ResourceRequest
		rowErrs []string
	)
	for n, row := range rows[1:] {
		line := n + 2
		name := cell(row, "name")
		if name == "" {
			if strings.TrimSpace(strings.Join(row, "")) != "" {
				rowErrs = append(rowErrs, fmt.Sprintf("row %d: name is required", line))
			}
			continue
		}
		qty, err := parseAmount(cell(row, "quantity"))
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: invalid quantity %q", line, cell(row, "quantity")))
			continue
		}
		threshold, err := parseAmount(cell(row, "threshold"))
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: invalid threshold %q", line, cell(row, "threshold")))
			continue
		}
		reqs = append(reqs, models.ResourceRequest{
			Name:      name,
			Quantity:  &qty,
			Unit:      cell(row, "unit"),
			Threshold: &threshold,
		})
	}
	if len(rowErrs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(rowErrs, "; "))
	}
	return reqs, nil
}

// parseAmount accepts finite, non-negative numbers only.
func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("amount out of range: %q", s)
	}
	return v, nil
}
