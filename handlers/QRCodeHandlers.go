package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"siteguard/models"
	"siteguard/services"
)

const qrImageSize = 512

// siteQRPayload is what a site QR code encodes.
type siteQRPayload struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Location    string `json:"location"`
}

// addLabel draws a value in the regular face.
func addLabel(img *image.RGBA, x, y int, label string) {
	drawText(img, x, y, label, inconsolata.Regular8x16, color.RGBA{0, 0, 0, 255})
}

// addLabelBold draws a field name in the bold face.
func addLabelBold(img *image.RGBA, x, y int, label string) {
	drawText(img, x, y, label, inconsolata.Bold8x16, color.RGBA{30, 30, 30, 255})
}

func drawText(img *image.RGBA, x, y int, label string, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// renderSiteQR draws the QR code with a label block underneath and encodes it as JPEG.
func renderSiteQR(w models.Workspace) ([]byte, error) {
	payload, err := json.Marshal(siteQRPayload{WorkspaceID: w.ID, Name: w.Name, Location: w.Location})
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	qrImg := qr.Image(qrImageSize)

	qrSize := qrImg.Bounds().Dy()
	padding := 30
	lineHeight := 28
	totalHeight := qrSize + padding + 4*lineHeight + padding

	canvas := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, qrSize, qrSize), qrImg, image.Point{}, draw.Src)

	separatorY := qrSize + padding/2
	for x := 0; x < qrSize; x++ {
		canvas.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
	}

	startY := qrSize + padding + lineHeight
	xPos := 20
	rows := [][2]string{
		{"Site:", truncate(w.Name, 40)},
		{"Location:", truncate(w.Location, 40)},
		{"Stage:", truncate(w.Stage, 40)},
		{"Status:", string(w.Status)},
	}
	for i, row := range rows {
		addLabelBold(canvas, xPos, startY+i*lineHeight, row[0])
		addLabel(canvas, xPos+100, startY+i*lineHeight, row[1])
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// GetWorkspaceQRCode godoc
// @Summary      Site QR code as JPEG
// @Description  The code encodes {workspaceId, name, location}; the site details are printed below it.
// @Tags         workspaces
// @Produce      image/jpeg
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {file}    file    "JPEG image"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/workspaces/{id}/qr [get]
func GetWorkspaceQRCode(svc *services.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := svc.GetWorkspace(c.Request.Context(), currentUserID(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		img, err := renderSiteQR(*w)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/jpeg", img)
	}
}
