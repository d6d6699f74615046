// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveCount = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

const (
	pingPeriod = 20 * time.Second
	pongWait   = 2 * pingPeriod
	writeWait  = 10 * time.Second
)

type Subscriptions struct {
	ledger   *ledger.Ledger
	cache    *messageCache
	upgrader *websocket.Upgrader
	goes     co.Goes
}

func New(l *ledger.Ledger, db *eventdb.EventDB, allowedOrigins []string, cacheSize uint32) *Subscriptions {
	return &Subscriptions{
		ledger: l,
		cache:  newMessageCache(db, cacheSize),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

func (s *Subscriptions) head() uint64 {
	seq, _ := s.ledger.Head()
	return seq
}

func (s *Subscriptions) handleEventSubscription(w http.ResponseWriter, req *http.Request) error {
	pos, filter, err := parseEventQuery(req.URL.Query())
	if err != nil {
		return restutil.BadRequest(err)
	}
	if head := s.head(); pos > head {
		pos = head
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	s.goes.Go(func(stop <-chan struct{}) {
		metricActiveCount().AddWithLabel(1, map[string]string{"subject": "event"})
		defer metricActiveCount().AddWithLabel(-1, map[string]string{"subject": "event"})

		reader := newEventReader(s.head, s.cache, pos, filter)
		err := s.pipe(conn, reader, stop)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err != nil {
			msg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
			logger.Debug("subscription closed", "err", err)
		}
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
	})
	return nil
}

// pipe streams the reader into conn until the client goes away or the service closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader, stop <-chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		// the client is not expected to send anything, read to process control frames
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	waiter := s.ledger.NewWaiter()
	for {
		msgs, moved, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return nil
			}
		}
		if moved {
			// there may be more operations to read
			continue
		}

		select {
		case <-stop:
			return nil
		case <-closed:
			return nil
		case <-waiter.C():
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

// Close ends every subscription and waits for them.
func (s *Subscriptions) Close() {
	s.goes.Stop()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleEventSubscription))
}
