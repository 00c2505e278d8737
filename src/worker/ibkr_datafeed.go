package worker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
	"github.com/petewilburn/ibkr-options-chains/src/eventpubsub"
)

func IBSubscribe(conID string) []byte {
	return []byte(fmt.Sprintf(`smd+%s+{"fields":["31"]}`, conID))
}

func IBConnect(urlStr string, conID string) (*websocket.Conn, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	log.Infof("connecting to %s", u.String())

	// Custom dialer with TLS configuration to allow connecting to localhost
	dialer := *websocket.DefaultDialer
	dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	c, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, fmt.Errorf("interactive brokers: failed to connect to websocket server: connection is nil")
	}

	// the gateway drops subscriptions sent before its session handshake completes
	time.Sleep(5 * time.Second)

	payload := IBSubscribe(conID)

	if err := c.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return nil, fmt.Errorf("interactive brokers: connect: failed to write message: %v, using payload %s", err, payload)
	}

	return c, nil
}

type IBIncomingTickDTO struct {
	Topic     string `json:"topic"`
	TimeEpoch int64  `json:"_updated"`
	Price     string `json:"31"`
	ConID     int    `json:"conid"`
}

func (t IBIncomingTickDTO) ToTick() (*eventmodels.Tick, error) {
	if t.ConID == 0 {
		return nil, fmt.Errorf("ToTick: missing conid")
	}

	seconds := t.TimeEpoch / 1000
	nanoseconds := (t.TimeEpoch % 1000) * int64(time.Millisecond)
	ts := time.Unix(seconds, nanoseconds)

	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("ToTick: failed to parse price: %w", err)
	}

	return eventmodels.NewTick(t.ConID, ts, price), nil
}

type IBSMDMessage struct {
	Topic string `json:"topic"`
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type IBDatafeedWorker struct {
	ServerURL string
	ConID     string
}

func NewIBDatafeedWorker(serverURL string, conID string) *IBDatafeedWorker {
	return &IBDatafeedWorker{
		ServerURL: serverURL,
		ConID:     conID,
	}
}

// Start connects to the gateway websocket and publishes underlying
// ticks until the context is cancelled. Dropped connections are
// re-established in place.
func (w *IBDatafeedWorker) Start(ctx context.Context) error {
	c, err := IBConnect(w.ServerURL, w.ConID)
	if err != nil {
		return fmt.Errorf("IBDatafeedWorker: Start: %w", err)
	}

	go w.listen(ctx, c)

	return nil
}

func (w *IBDatafeedWorker) listen(ctx context.Context, c *websocket.Conn) {
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping IBDatafeedWorker")
			return
		default:
			c.SetReadDeadline(time.Now().UTC().Add(30 * time.Second))
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Errorf("IBDatafeedWorker: ReadMessage(): %v", err)

				newConn, newErr := IBConnect(w.ServerURL, w.ConID)
				if newErr != nil {
					log.Errorf("IBDatafeedWorker: failed to reconnect: %v", newErr)
					continue
				}

				if e := c.Close(); e != nil {
					log.Errorf("IBDatafeedWorker: error closing old connection: %v", e)
				}

				c = newConn
				continue
			}

			var dto IBIncomingTickDTO
			if err := json.Unmarshal(message, &dto); err != nil {
				log.Errorf("IBDatafeedWorker: failed to unmarshal message: %v", err)
				continue
			}

			// discard unknown messages
			if dto.Topic == "" {
				log.Warnf("IBDatafeedWorker: unknown message: %v", string(message))
				continue
			}

			if dto.Topic == "smd" {
				var errMessage IBSMDMessage
				if err := json.Unmarshal(message, &errMessage); err != nil {
					log.Errorf("IBDatafeedWorker: failed to unmarshal error message: %v", err)
					continue
				}

				log.Errorf("IBDatafeedWorker: smd code %d: %s", errMessage.Code, errMessage.Error)
				continue
			}

			// ignore system messages
			if dto.Topic == "system" {
				continue
			}

			if len(dto.Topic) < 3 || dto.Topic[:3] != "smd" {
				log.Warnf("IBDatafeedWorker: unknown topic: %v", dto.Topic)
				continue
			}

			tick, err := dto.ToTick()
			if err != nil {
				log.Errorf("IBDatafeedWorker: failed to convert dto to tick: %v", err)
				continue
			}

			eventpubsub.PublishEventResult("IBDatafeedWorker", eventpubsub.NewTickEvent, tick)
		}
	}
}
