// Package track implements the scrolling obstacle and collectible field a
// bot runs through. Spawning is driven by a seeded RNG so a whole run is
// reproducible from the session seed.
package track

import (
	"math/rand"

	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/core"
)

// Player sprite placement on screen. The bot never moves horizontally; the
// world scrolls past it.
const (
	PlayerX      = 8
	PlayerWidth  = 3
	PlayerHeight = 3

	// MagnetRadius is the extra pickup reach (in cells) while a magnetic
	// field effect is active.
	MagnetRadius = 4
)

// Obstacle is a ground hazard the bot must jump over.
type Obstacle struct {
	X      float64 // Left edge, world scroll applied
	Width  int
	Height int
}

// Rect returns the collision rectangle in screen coordinates.
func (o Obstacle) Rect(groundY int) core.Rect {
	return core.NewRect(int(o.X), groundY-o.Height, o.Width, o.Height)
}

// Coin is a collectible hovering above the ground.
type Coin struct {
	X         float64
	Altitude  int // Cells above ground
	Collected bool
}

// Rect returns the pickup rectangle in screen coordinates.
func (c Coin) Rect(groundY int) core.Rect {
	return core.NewRect(int(c.X), groundY-1-c.Altitude, 1, 1)
}

// Field owns all obstacles and coins currently in play.
type Field struct {
	cfg        config.TrackConfig
	rng        *rand.Rand
	screenW    int
	obstacles  []Obstacle
	coins      []Coin
	nextSpawnX float64
}

// NewField creates a field seeded for deterministic spawning.
func NewField(seed int64, screenW int, cfg config.TrackConfig) *Field {
	f := &Field{
		cfg:       cfg,
		screenW:   screenW,
		obstacles: make([]Obstacle, 0, 8),
		coins:     make([]Coin, 0, 16),
	}
	f.Reset(seed)
	return f
}

// Reset clears the field and reseeds the RNG.
func (f *Field) Reset(seed int64) {
	f.obstacles = f.obstacles[:0]
	f.coins = f.coins[:0]
	f.rng = rand.New(rand.NewSource(seed))
	f.nextSpawnX = float64(f.screenW + f.cfg.MinSpacing)
}

// Advance scrolls the world left by dx cells, culling what leaves the screen
// and spawning ahead of the right edge.
func (f *Field) Advance(dx float64) {
	if dx <= 0 {
		return
	}

	for i := range f.obstacles {
		f.obstacles[i].X -= dx
	}
	for i := range f.coins {
		f.coins[i].X -= dx
	}

	live := f.obstacles[:0]
	for _, o := range f.obstacles {
		if o.X+float64(o.Width) > 0 {
			live = append(live, o)
		}
	}
	f.obstacles = live

	liveCoins := f.coins[:0]
	for _, c := range f.coins {
		if !c.Collected && c.X+1 > 0 {
			liveCoins = append(liveCoins, c)
		}
	}
	f.coins = liveCoins

	f.nextSpawnX -= dx
	for f.nextSpawnX <= float64(f.screenW) {
		f.spawn()
	}
}

// spawn places the next obstacle at nextSpawnX and, sometimes, a coin row in
// the gap after it.
func (f *Field) spawn() {
	width := f.roll(f.cfg.MinObstacleWidth, f.cfg.MaxObstacleWidth)
	height := f.roll(f.cfg.MinObstacleHeight, f.cfg.MaxObstacleHeight)

	f.obstacles = append(f.obstacles, Obstacle{
		X:      f.nextSpawnX,
		Width:  width,
		Height: height,
	})

	spacing := f.roll(f.cfg.MinSpacing, f.cfg.MaxSpacing)

	if f.rng.Intn(100) < f.cfg.CoinChance && f.cfg.MaxCoinsPerRow > 0 {
		count := 1 + f.rng.Intn(f.cfg.MaxCoinsPerRow)
		altitude := 1 + f.rng.Intn(3)
		start := f.nextSpawnX + float64(width) + float64(spacing)/2
		for i := 0; i < count; i++ {
			f.coins = append(f.coins, Coin{
				X:        start + float64(i*2),
				Altitude: altitude,
			})
		}
	}

	f.nextSpawnX += float64(width + spacing)
}

func (f *Field) roll(min, max int) int {
	if max <= min {
		return min
	}
	return min + f.rng.Intn(max-min+1)
}

// PlayerRect returns the bot's collision rectangle for the given altitude.
func PlayerRect(groundY, altitudeCells int) core.Rect {
	return core.NewRect(PlayerX, groundY-PlayerHeight-altitudeCells, PlayerWidth, PlayerHeight)
}

// HitsObstacle reports whether the player rectangle intersects any obstacle.
func (f *Field) HitsObstacle(player core.Rect, groundY int) bool {
	for _, o := range f.obstacles {
		if player.Intersects(o.Rect(groundY)) {
			return true
		}
	}
	return false
}

// CollectCoins marks and counts coins within pickup reach. With magnet
// active, reach extends by MagnetRadius cells on every side.
func (f *Field) CollectCoins(player core.Rect, groundY int, magnet bool) int {
	reach := player
	if magnet {
		reach = player.Expand(MagnetRadius)
	}

	collected := 0
	for i := range f.coins {
		if f.coins[i].Collected {
			continue
		}
		if reach.Intersects(f.coins[i].Rect(groundY)) {
			f.coins[i].Collected = true
			collected++
		}
	}
	return collected
}

// Obstacles returns the live obstacles for rendering.
func (f *Field) Obstacles() []Obstacle { return f.obstacles }

// Coins returns the live coins for rendering.
func (f *Field) Coins() []Coin { return f.coins }
