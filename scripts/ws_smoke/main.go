package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gabriel-vasile/mimetype"

	applog "github.com/vovakirdan/voxrelay/internal/log"
	"github.com/vovakirdan/voxrelay/internal/message"
	"github.com/vovakirdan/voxrelay/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	logger := applog.New("info")
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to announce with hello")
	text := flag.String("text", "hello from smoke test", "message text to send")
	voice := flag.String("voice", "", "audio file to send as a voice message instead of text")
	listen := flag.Bool("listen", false, "print incoming messages until interrupted instead of publishing")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run (ignored with -listen)")
	flag.Parse()

	ctx := context.Background()
	if !*listen {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeHello, proto.HelloData{User: *user, Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}

	if !*listen {
		data, err := publishData(*text, *voice)
		if err != nil {
			return err
		}
		if err := send(ctx, conn, proto.InboundTypePublish, data); err != nil {
			return err
		}
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch {
		case out.Type == proto.OutboundTypeError && out.Error != nil:
			return fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
		case out.Event == proto.EventNameWelcome:
			fmt.Printf("welcome: %s\n", out.Data)
		case out.Event == proto.EventNameHistory:
			var history proto.EventHistory
			if err := json.Unmarshal(out.Data, &history); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}
			for _, ev := range history.Messages {
				printMessage("history", ev)
			}
		case out.Event == proto.EventNameMessage:
			var ev proto.EventMessage
			if err := json.Unmarshal(out.Data, &ev); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			printMessage("message", ev)
			if !*listen {
				return nil
			}
		}
	}
}

func publishData(text, voicePath string) (proto.PublishData, error) {
	if voicePath == "" {
		return proto.PublishData{Text: &text}, nil
	}

	raw, err := os.ReadFile(voicePath)
	if err != nil {
		return proto.PublishData{}, fmt.Errorf("read voice file: %w", err)
	}
	mediaType, _, _ := strings.Cut(mimetype.Detect(raw).String(), ";")
	dataURL := message.DataURL{
		MediaType: mediaType,
		Encoding:  message.EncodingBase64,
		Data:      base64.StdEncoding.EncodeToString(raw),
	}.String()
	return proto.PublishData{DataURL: &dataURL}, nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func printMessage(label string, ev proto.EventMessage) {
	fmt.Printf("%s #%d [%s] %s\n", label, ev.ID, ev.Message.TimestampString(), ev.Message.Text())
}
