package network

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"bidindex/pkg/common"
	"bidindex/pkg/core"
	"bidindex/pkg/logging"
	"bidindex/pkg/protocol"
)

// Status bytes carried in the value of an OK reply to insert and remove.
const (
	StatusUnchanged = 0x00
	StatusChanged   = 0x01
)

type TCPServer struct {
	session *core.Session
	log     *slog.Logger

	// maxReply caps a reply body; larger replies become an error frame.
	maxReply int

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewTCPServer(session *core.Session) *TCPServer {
	return &TCPServer{
		session:  session,
		log:      logging.Component("tcp"),
		maxReply: protocol.MaxValueSize,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Start listens on addr and serves until Close is called.
func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on l until Close is called.
func (s *TCPServer) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return net.ErrClosed
	}
	s.listener = l
	s.mu.Unlock()

	s.log.Info("listening", "addr", l.Addr().String())

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept error", "error", err)
			continue
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
	}
}

func (s *TCPServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *TCPServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// Close stops accepting, drops open connections and waits for their handlers.
func (s *TCPServer) Close() error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *TCPServer) handleConn(conn io.ReadWriter) {
	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("decode error", "error", err)
			}
			return
		}
		if err := s.dispatch(conn, req); err != nil {
			s.log.Debug("write error", "error", err)
			return
		}
	}
}

func (s *TCPServer) dispatch(w io.Writer, req *protocol.Packet) error {
	switch req.Op {
	case protocol.OpInsert:
		rec, _, err := protocol.ReadRecord(req.Value)
		if err != nil {
			return replyErr(w, err.Error())
		}
		inserted, err := s.session.Insert(rec)
		if err != nil {
			return replyErr(w, err.Error())
		}
		return protocol.Encode(w, protocol.RespOK, nil, []byte{status(inserted)})

	case protocol.OpSearch:
		rec, found := s.session.Find(string(req.Key))
		if !found {
			return replyErr(w, "not found")
		}
		return s.replyVal(w, protocol.AppendRecord(nil, rec))

	case protocol.OpRemove:
		removed := s.session.Remove(string(req.Key))
		return protocol.Encode(w, protocol.RespOK, nil, []byte{status(removed)})

	case protocol.OpDump:
		order := common.InOrder
		if len(req.Value) > 0 {
			order = common.Order(req.Value[0])
		}
		if order > common.PostOrder {
			return replyErr(w, "unknown order")
		}
		records, err := s.session.Records(order)
		if err != nil {
			return replyErr(w, err.Error())
		}
		return s.replyVal(w, protocol.EncodeRecords(records))

	case protocol.OpStats:
		data, err := json.Marshal(s.session.Stats())
		if err != nil {
			return replyErr(w, err.Error())
		}
		return s.replyVal(w, data)

	default:
		return replyErr(w, "unknown op")
	}
}

func (s *TCPServer) replyVal(w io.Writer, data []byte) error {
	if len(data) > s.maxReply {
		return replyErr(w, protocol.ErrFrameTooLarge.Error())
	}
	return protocol.Encode(w, protocol.RespVal, nil, data)
}

func replyErr(w io.Writer, msg string) error {
	return protocol.Encode(w, protocol.RespErr, nil, []byte(msg))
}

func status(changed bool) byte {
	if changed {
		return StatusChanged
	}
	return StatusUnchanged
}
