// video_backend_ebiten.go - Ebiten pixel-drawing-surface backend
//
// An ebiten.Game implementation owning an RGBA framebuffer, writing it
// into an ebiten.Image once per Draw, and polling ebiten's input state
// each Update: renders video_processor.go's resolved CellRows through
// video_font.go's glyph bitmaps, and feeds scan-code transitions into
// KeyboardUART from ebiten's own key/rune events.
package main

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

const (
	ebitenFGColor uint32 = 0x33FF33FF // phosphor green
	ebitenBGColor uint32 = 0x000000FF
)

// EbitenBackend is a pixel-drawing-surface: it turns resolved CellRows
// into an RGBA framebuffer and presents it through ebiten's game loop.
type EbitenBackend struct {
	mu          sync.RWMutex
	proc        *VideoProcessor
	kbd         *KeyboardUART
	chips       *VT100Chips
	width       int
	height      int
	frameBuffer []byte
	image       *ebiten.Image

	clipboardOnce sync.Once
	clipboardOK   bool

	cursorCol, cursorRow int
	cursorVisible        bool

	closed bool
}

// NewEbitenBackend constructs a backend sized for the processor's current
// column count at construction time and a fixed 25-row display, enough
// for VT100's 80x24(+status) geometry and the 14 rows of 132-column mode.
func NewEbitenBackend(proc *VideoProcessor, kbd *KeyboardUART, chips *VT100Chips) *EbitenBackend {
	w := proc.ColumnCount() * glyphCellWidth
	h := 25 * glyphCellHeight
	return &EbitenBackend{
		proc:        proc,
		kbd:         kbd,
		chips:       chips,
		width:       w,
		height:      h,
		frameBuffer: make([]byte, w*h*4),
	}
}

// Run starts the ebiten game loop. It blocks until the window closes, and
// must be called from the main goroutine - ebiten requires it.
func (b *EbitenBackend) Run(title string) error {
	ebiten.SetWindowSize(b.width*2, b.height*2)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	return ebiten.RunGame(b)
}

// Present re-renders the processor's resolved rows into the framebuffer.
// Called once per frame from machine.go's RunFrame.
func (b *EbitenBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for row, cell := range b.proc.Rows() {
		b.drawRow(row, cell)
	}
}

func (b *EbitenBackend) drawRow(row int, cell CellRow) {
	y0 := row * glyphCellHeight
	if y0+glyphCellHeight > b.height {
		return
	}
	fg, bg := ebitenFGColor, ebitenBGColor
	if b.chips != nil && b.chips.ReverseVideo() {
		fg, bg = bg, fg
	}
	for col := 0; col < len(cell.Chars); col++ {
		g := Glyph(cell.Chars[col])
		switch cell.Font {
		case FontDoubleHighTop:
			g = StretchTopHalf(g)
		case FontDoubleHighBottom:
			g = StretchBottomHalf(g)
		}
		x0 := col * glyphCellWidth
		if x0+glyphCellWidth > b.width {
			break
		}
		b.blitGlyph(x0, y0, g, fg, bg)
	}
}

func (b *EbitenBackend) blitGlyph(x0, y0 int, g glyphBitmap, fg, bg uint32) {
	fr, fgc, fb, fa := colorBytes(fg)
	br, bgc, bb, ba := colorBytes(bg)
	for dy := 0; dy < glyphCellHeight; dy++ {
		rowBits := g[dy]
		lineOff := (y0+dy)*b.width*4 + x0*4
		if lineOff < 0 || lineOff+glyphCellWidth*4 > len(b.frameBuffer) {
			continue
		}
		for dx := 0; dx < glyphCellWidth; dx++ {
			i := lineOff + dx*4
			if rowBits&(0x80>>uint(dx)) != 0 {
				b.frameBuffer[i], b.frameBuffer[i+1], b.frameBuffer[i+2], b.frameBuffer[i+3] = fr, fgc, fb, fa
			} else {
				b.frameBuffer[i], b.frameBuffer[i+1], b.frameBuffer[i+2], b.frameBuffer[i+3] = br, bgc, bb, ba
			}
		}
	}
}

func colorBytes(c uint32) (byte, byte, byte, byte) {
	return byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)
}

// SetCursor records the cursor position and visibility. Present and Draw
// do not draw a cursor; the recorded values are not read back.
func (b *EbitenBackend) SetCursor(col, row int, visible bool) {
	b.mu.Lock()
	b.cursorCol, b.cursorRow, b.cursorVisible = col, row, visible
	b.mu.Unlock()
}

// --- ebiten.Game interface --------------------------------------------

func (b *EbitenBackend) Update() error {
	if ebiten.IsWindowBeingClosed() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		return ebiten.Termination
	}
	b.handleInput()
	return nil
}

func (b *EbitenBackend) handleInput() {
	if b.kbd == nil {
		return
	}
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		b.clipboardOnce.Do(func() { b.clipboardOK = clipboard.Init() == nil })
		if b.clipboardOK {
			pasteInto(b.kbd)
		}
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if code, ok := runeToScanCode(r); ok {
			feedKeyPress(b.kbd, code)
		}
	}
	for key, code := range ebitenSpecialKeys {
		if inpututil.IsKeyJustPressed(key) {
			feedKeyPress(b.kbd, code)
		}
	}
}

var ebitenSpecialKeys = map[ebiten.Key]byte{
	ebiten.KeyEnter:       scanReturn,
	ebiten.KeyNumpadEnter: scanReturn,
	ebiten.KeyBackspace:   scanBackspace,
	ebiten.KeyTab:         scanTab,
	ebiten.KeyEscape:      scanEscape,
	ebiten.KeyArrowUp:     scanArrowUp,
	ebiten.KeyArrowDown:   scanArrowDown,
	ebiten.KeyArrowLeft:   scanArrowLeft,
	ebiten.KeyArrowRight:  scanArrowRight,
	ebiten.KeyHome:        scanHome,
	ebiten.KeyEnd:         scanEnd,
	ebiten.KeyDelete:      scanDelete,
}

func (b *EbitenBackend) Draw(screen *ebiten.Image) {
	b.mu.RLock()
	if b.image == nil {
		b.image = ebiten.NewImage(b.width, b.height)
	}
	b.image.WritePixels(b.frameBuffer)
	b.mu.RUnlock()
	screen.DrawImage(b.image, nil)
}

func (b *EbitenBackend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return b.width, b.height
}

// Closed reports whether the host window has been closed.
func (b *EbitenBackend) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
