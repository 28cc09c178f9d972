// Package spjs talks to a Serial Port JSON Server instance over a
// websocket, so the motion controller can sit on a network bridge
// instead of a local serial port.
package spjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// reconnectDelay is the wait between connection attempts.
const reconnectDelay = 3 * time.Second

// Client maintains a websocket connection to an SPJS server,
// reconnecting as needed. Outgoing commands queue while disconnected.
type Client struct {
	url string
	log zerolog.Logger

	mx          sync.RWMutex
	serialPorts []SerialPort

	outgoing chan message
	incoming chan interface{}

	portMx sync.Mutex
	ports  map[string]*Port
}

type message struct {
	done    chan struct{}
	payload []byte
}

// DataFrame is a chunk of data received from a serial port.
type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}

// CmdStatus reports queue state for previously sent commands.
type CmdStatus struct {
	Cmd        string
	QueueCount int `json:"QCnt"`
	Type       []string
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}

// ErrorMessage is an error reported by the server.
type ErrorMessage struct {
	Error string
}

// SerialPortList is the response to a "list" command.
type SerialPortList struct {
	SerialPorts []SerialPort
}

// SerialPort describes one port known to the server.
type SerialPort struct {
	Name                      string
	Friendly                  string
	SerialNumber              string
	DeviceClass               string
	IsOpen                    bool
	IsPrimary                 bool
	RelatedNames              []string
	Baud                      int
	BufferAlgorithm           string
	AvailableBufferAlgorithms []string
	Ver                       float64
	USBVID                    string
	USBPID                    string
	FeedRateOverride          float64
}

// NewClient creates a Client and starts its connection loop.
func NewClient(url string, log zerolog.Logger) *Client {
	c := &Client{
		url:      url,
		log:      log,
		outgoing: make(chan message, 1000),
		incoming: make(chan interface{}, 1000),
		ports:    make(map[string]*Port),
	}

	go c.loop()
	go c.route()

	return c
}

// SerialPorts returns the last port list reported by the server.
func (c *Client) SerialPorts() []SerialPort {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.serialPorts
}

// Open asks the server to open a serial port with the default buffer
// algorithm.
func (c *Client) Open(name string, baud int) {
	c.WriteString("open " + name + " " + strconv.Itoa(baud) + " default")
}

func parseMessage(data []byte, msg map[string]json.RawMessage) (val interface{}, err error) {
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Type", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}

func (c *Client) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.log.Error().Err(err).Msg("spjs read")
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			c.log.Error().Err(err).Msg("spjs read")
		}
		val, err := parseMessage(data, msg)
		if err != nil {
			c.log.Error().Err(err).Msg("spjs parse")
			continue
		}
		c.incoming <- val
	}
}

// route dispatches parsed messages: data frames go to their Port, the
// serial port list updates the cached copy, everything else is logged.
func (c *Client) route() {
	for val := range c.incoming {
		switch m := val.(type) {
		case *DataFrame:
			c.portMx.Lock()
			p := c.ports[m.Port]
			c.portMx.Unlock()
			if p != nil {
				p.push([]byte(m.Data))
			}
		case *SerialPortList:
			c.mx.Lock()
			c.serialPorts = m.SerialPorts
			c.mx.Unlock()
		case *ErrorMessage:
			c.log.Error().Str("error", m.Error).Msg("spjs server error")
		case *CmdStatus:
			c.log.Debug().Str("cmd", m.Cmd).Int("queue", m.QueueCount).Msg("spjs command status")
		}
	}
}

func (c *Client) loop() {
	var nextUp message

reconnect:
	for {
		c.log.Info().Str("url", c.url).Msg("connecting to spjs")
		ws, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			c.log.Error().Err(err).Msg("spjs connect")
			time.Sleep(reconnectDelay)
			continue
		}
		c.log.Info().Msg("spjs connected")
		ch := make(chan struct{})
		go c.readLoop(ws, ch)
		go c.WriteString("list") // refresh list on reconnect

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					c.log.Error().Err(err).Msg("spjs send")
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-ch:
				continue reconnect
			case nextUp = <-c.outgoing:
			}
		}
	}
}

// JSON is the sendjson payload envelope.
type JSON struct {
	Port string `json:"P"`
	Data []Data
}

// Data is one command line within a sendjson payload.
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

// SendJSON queues a sendjson command and waits until it has been
// written to the server.
func (c *Client) SendJSON(v JSON) {
	data, err := json.Marshal(v)
	if err != nil {
		// shouldn't happen since we control everything that's sent out
		c.log.Panic().Err(err).Msg("spjs sendjson marshal")
		return
	}

	ch := make(chan struct{})
	c.outgoing <- message{done: ch, payload: append([]byte("sendjson "), data...)}
	<-ch
}

// WriteString queues a raw command and waits until it has been
// written to the server.
func (c *Client) WriteString(data string) {
	ch := make(chan struct{})
	c.outgoing <- message{done: ch, payload: []byte(data)}
	<-ch
}
