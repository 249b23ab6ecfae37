package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"bidindex/pkg/common"
	"bidindex/pkg/network"
	"bidindex/pkg/protocol"
)

var (
	ErrNotFound = errors.New("bid not found")
	// ErrNoReply means an insert or remove was sent but the connection broke
	// before the reply arrived. The server may or may not have applied it.
	ErrNoReply = errors.New("connection lost before reply")
)

const dialTimeout = 5 * time.Second

// Client talks to a TCPServer. A request that could not be sent is retried
// once on a fresh connection. A lost reply is retried only for reads; an
// insert or remove returns ErrNoReply instead. Safe for concurrent use;
// requests are serialized.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

// Insert stores rec and reports whether it was new. ErrNoReply leaves the
// outcome unknown; a Search tells whether the record is there.
func (c *Client) Insert(rec common.Record) (bool, error) {
	resp, err := c.roundTrip(protocol.OpInsert, nil, protocol.AppendRecord(nil, rec))
	if err != nil {
		return false, err
	}
	return changed(resp)
}

func (c *Client) Search(id string) (common.Record, error) {
	resp, err := c.roundTrip(protocol.OpSearch, []byte(id), nil)
	if err != nil {
		return common.Record{}, err
	}
	switch resp.Op {
	case protocol.RespVal:
		rec, _, err := protocol.ReadRecord(resp.Value)
		return rec, err
	case protocol.RespErr:
		if string(resp.Value) == "not found" {
			return common.Record{}, ErrNotFound
		}
		return common.Record{}, errors.New(string(resp.Value))
	default:
		return common.Record{}, errors.New("unknown response")
	}
}

// Remove deletes id and reports whether it was present. As with Insert, a
// lost reply yields ErrNoReply.
func (c *Client) Remove(id string) (bool, error) {
	resp, err := c.roundTrip(protocol.OpRemove, []byte(id), nil)
	if err != nil {
		return false, err
	}
	return changed(resp)
}

// Dump returns every record in the given traversal order.
func (c *Client) Dump(order common.Order) ([]common.Record, error) {
	resp, err := c.roundTrip(protocol.OpDump, nil, []byte{byte(order)})
	if err != nil {
		return nil, err
	}
	if resp.Op != protocol.RespVal {
		return nil, fmt.Errorf("dump failed: %s", resp.Value)
	}
	return protocol.DecodeRecords(resp.Value)
}

func (c *Client) Stats() (map[string]interface{}, error) {
	resp, err := c.roundTrip(protocol.OpStats, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.Op != protocol.RespVal {
		return nil, fmt.Errorf("stats failed: %s", resp.Value)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Value, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) roundTrip(op byte, key, val []byte) (*protocol.Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		if err := c.redial(); err != nil {
			return nil, err
		}
		return c.send(op, key, val)
	}
	resp, err := protocol.Decode(c.conn)
	if err == nil {
		return resp, nil
	}

	if rerr := c.redial(); rerr != nil {
		return nil, rerr
	}
	if !idempotent(op) {
		return nil, fmt.Errorf("%w: %v", ErrNoReply, err)
	}
	return c.send(op, key, val)
}

func (c *Client) send(op byte, key, val []byte) (*protocol.Packet, error) {
	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return nil, err
	}
	return protocol.Decode(c.conn)
}

func (c *Client) redial() error {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func idempotent(op byte) bool {
	switch op {
	case protocol.OpSearch, protocol.OpDump, protocol.OpStats:
		return true
	}
	return false
}

func changed(resp *protocol.Packet) (bool, error) {
	switch resp.Op {
	case protocol.RespOK:
		return len(resp.Value) > 0 && resp.Value[0] == network.StatusChanged, nil
	case protocol.RespErr:
		return false, errors.New(string(resp.Value))
	default:
		return false, errors.New("unknown response")
	}
}
