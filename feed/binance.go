package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// BinanceSource streams bookTicker mid prices for a set of symbols from
// the Binance combined WebSocket stream.
type BinanceSource struct {
	baseSource
	symbols []string
	url     string
}

// NewBinance builds a source for the given symbols (e.g. "BTCUSDT").
func NewBinance(symbols []string) *BinanceSource {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + "@bookTicker"
	}
	return &BinanceSource{
		baseSource: newBaseSource("binance"),
		symbols:    symbols,
		url:        "wss://stream.binance.com:9443/stream?streams=" + strings.Join(streams, "/"),
	}
}

type binanceStreamMessage struct {
	Stream string            `json:"stream"`
	Data   binanceBookTicker `json:"data"`
}

type binanceBookTicker struct {
	Symbol       string `json:"s"`
	BestBidPrice string `json:"b"`
	BestAskPrice string `json:"a"`
}

// Run connects and reads until the context is cancelled, reconnecting
// with a short delay after transport errors.
func (f *BinanceSource) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("binance feed: no symbols")
	}

	for {
		if err := f.connect(ctx); err != nil {
			slog.Warn("binance ws disconnected", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			slog.Info("binance reconnecting")
		}
	}
}

func (f *BinanceSource) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var m binanceStreamMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}

		bid, err1 := strconv.ParseFloat(m.Data.BestBidPrice, 64)
		ask, err2 := strconv.ParseFloat(m.Data.BestAskPrice, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		f.setPrice(m.Data.Symbol, (bid+ask)/2)
	}
}
