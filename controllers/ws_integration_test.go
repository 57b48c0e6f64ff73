package controllers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net"
	"testing"
	"time"

	fasthttpws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"pixelboard-server/models"
	service "pixelboard-server/services"
	"pixelboard-server/utils"
)

type staticCanvasRepo struct {
	canvas models.Canvas
}

func (r *staticCanvasRepo) SaveCanvas(canvas models.Canvas) (string, error) {
	return canvas.ID, nil
}

func (r *staticCanvasRepo) FindCanvasByID(id string) (models.Canvas, error) {
	if id != r.canvas.ID {
		return models.Canvas{}, errors.New("canvas not found")
	}
	return r.canvas, nil
}

func (r *staticCanvasRepo) FindAllCanvases() ([]models.Canvas, error) {
	return []models.Canvas{r.canvas}, nil
}

func (r *staticCanvasRepo) UpdateCanvasTitle(id, newTitle string) error { return nil }
func (r *staticCanvasRepo) DeleteCanvasByID(id string) error           { return nil }

type gatewayServer struct {
	addr string
	priv *rsa.PrivateKey
}

// startGateway runs the websocket route on a real listener so the tests
// exercise the whole handshake, not just the frame handlers.
func startGateway(t *testing.T) *gatewayServer {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	assert.NoError(t, err)
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	store := utils.NewPublicKeyStore()
	assert.NoError(t, store.AddOrUpdateKey("test", pemStr))

	canvasRepo := &staticCanvasRepo{canvas: models.Canvas{
		ID:                "canvas1",
		Width:             256,
		Height:            256,
		TileSize:          32,
		CollaborationMode: "open",
	}}
	registry := service.NewRegistry()
	locks := service.NewLockService(service.DefaultLockTTL)
	wsc := NewWebSocketController(registry, locks, canvasRepo, &mockChatRepo{}, &mockPresenceRepo{}, store)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:canvasId", websocket.New(wsc.HandleWebSocket))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return &gatewayServer{addr: ln.Addr().String(), priv: priv}
}

func (g *gatewayServer) token(t *testing.T, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, utils.CustomClaims{
		UserID:   userID,
		Username: "user-" + userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token.Header["kid"] = "test"
	signed, err := token.SignedString(g.priv)
	assert.NoError(t, err)
	return signed
}

func (g *gatewayServer) dial(t *testing.T, canvasID, token string) *fasthttpws.Conn {
	t.Helper()

	url := "ws://" + g.addr + "/ws/" + canvasID + "?token=" + token
	conn, _, err := fasthttpws.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *fasthttpws.Conn) map[string]interface{} {
	t.Helper()

	_, data, err := conn.ReadMessage()
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	var event map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &event))
	return event
}

func assertClosedWith(t *testing.T, conn *fasthttpws.Conn, code int) {
	t.Helper()

	_, _, err := conn.ReadMessage()
	var closeErr *fasthttpws.CloseError
	if assert.ErrorAs(t, err, &closeErr) {
		assert.Equal(t, code, closeErr.Code)
	}
}

func TestGatewayRejectsBadToken(t *testing.T) {
	g := startGateway(t)

	conn := g.dial(t, "canvas1", "not-a-token")
	assertClosedWith(t, conn, CloseAuthFailed)
}

func TestGatewayRejectsUnknownCanvas(t *testing.T) {
	g := startGateway(t)

	conn := g.dial(t, "no-such-canvas", g.token(t, "alice"))
	assertClosedWith(t, conn, CloseCanvasNotFound)
}

func TestGatewayJoinAndLockFlow(t *testing.T) {
	g := startGateway(t)

	alice := g.dial(t, "canvas1", g.token(t, "alice"))
	joined := readEvent(t, alice)
	assert.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, "alice", joined["user_id"])
	assert.Len(t, joined["active_users"], 1)

	bob := g.dial(t, "canvas1", g.token(t, "bob"))
	joined = readEvent(t, bob)
	assert.Equal(t, "user_joined", joined["type"])
	assert.Len(t, joined["active_users"], 2)

	// The peer that was already connected hears about the join.
	joined = readEvent(t, alice)
	assert.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, "bob", joined["user_id"])

	frame, _ := json.Marshal(models.LockRequestFrame{
		Type:  models.FrameLockRequest,
		TileX: 3,
		TileY: 4,
	})
	assert.NoError(t, bob.WriteMessage(fasthttpws.TextMessage, frame))

	for _, conn := range []*fasthttpws.Conn{alice, bob} {
		event := readEvent(t, conn)
		assert.Equal(t, "tile_lock_acquired", event["type"])
		assert.Equal(t, "bob", event["holder_id"])
		assert.Equal(t, float64(3), event["tile_x"])
	}
}
