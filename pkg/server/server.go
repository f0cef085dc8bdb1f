package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/spellbroker/spellbroker/internal/logger"
	"github.com/spellbroker/spellbroker/pkg/broker"
	"github.com/spellbroker/spellbroker/pkg/config"
)

// Server handles the IPC for spell checking.
type Server struct {
	broker     *broker.Broker
	dicts      map[string]*broker.Dict
	maxWordLen int
	maxSuggest int
	dec        *msgpack.Decoder
	enc        *msgpack.Encoder
	log        *log.Logger
}

// NewServer creates a spell-checking server over stdin/stdout.
func NewServer(b *broker.Broker, cfg *config.Config) *Server {
	return NewServerWithIO(b, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over arbitrary streams, for tests and
// embedding.
func NewServerWithIO(b *broker.Broker, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		broker:     b,
		dicts:      make(map[string]*broker.Dict),
		maxWordLen: cfg.Server.MaxWordLen,
		maxSuggest: cfg.Suggest.MaxSuggestions,
		dec:        msgpack.NewDecoder(r),
		enc:        msgpack.NewEncoder(w),
		log:        logger.New("server"),
	}
}

// Start begins processing requests. It returns nil when the client closes
// the stream.
func (s *Server) Start() error {
	s.log.Debug("Starting server.")
	s.send(StatusResponse{Status: "ready"})

	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.shutdown()
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			s.shutdown()
			return err
		}
		s.handle(req)
	}
}

func (s *Server) handle(req Request) {
	switch req.Op {
	case "check":
		s.handleCheck(req)
	case "suggest":
		s.handleSuggest(req)
	case "add":
		s.handleWordOp(req, func(d *broker.Dict) error { return d.Add(req.Word) })
	case "remove":
		s.handleWordOp(req, func(d *broker.Dict) error { return d.Remove(req.Word) })
	case "add_session":
		s.handleWordOp(req, func(d *broker.Dict) error { return d.AddToSession(req.Word) })
	case "remove_session":
		s.handleWordOp(req, func(d *broker.Dict) error { return d.RemoveFromSession(req.Word) })
	case "store_replacement":
		s.handleWordOp(req, func(d *broker.Dict) error { return d.StoreReplacement(req.Word, req.With) })
	case "dict_exists":
		s.send(ExistsResponse{ID: req.ID, Exists: s.broker.DictExists(req.Tag)})
	case "list_dicts":
		s.handleListDicts(req)
	case "free_dict":
		s.handleFreeDict(req)
	case "ping":
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %s", req.Op))
	}
}

func (s *Server) validateWord(req Request) bool {
	if req.Word == "" {
		s.sendError(req.ID, "missing 'w' parameter")
		return false
	}
	if len(req.Word) > s.maxWordLen {
		s.sendError(req.ID, fmt.Sprintf("word exceeds maximum length of %d bytes", s.maxWordLen))
		return false
	}
	return true
}

func (s *Server) handleCheck(req Request) {
	if !s.validateWord(req) {
		return
	}
	dict, err := s.dict(req.Tag)
	if err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	start := time.Now()
	correct, err := dict.Check(req.Word)
	if err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	s.send(CheckResponse{
		ID:        req.ID,
		Correct:   correct,
		TimeTaken: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSuggest(req Request) {
	if !s.validateWord(req) {
		return
	}
	dict, err := s.dict(req.Tag)
	if err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	start := time.Now()
	suggs, err := dict.Suggest(req.Word)
	if err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	if s.maxSuggest > 0 && len(suggs) > s.maxSuggest {
		suggs = suggs[:s.maxSuggest]
	}
	s.send(SuggestResponse{
		ID:          req.ID,
		Suggestions: suggs,
		Count:       len(suggs),
		TimeTaken:   time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleWordOp(req Request, op func(*broker.Dict) error) {
	if !s.validateWord(req) {
		return
	}
	dict, err := s.dict(req.Tag)
	if err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	if err := op(dict); err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	s.send(StatusResponse{ID: req.ID, Status: "ok"})
}

func (s *Server) handleListDicts(req Request) {
	var dicts []DictInfo
	s.broker.ListDicts(func(tag, providerName, providerDesc string) {
		dicts = append(dicts, DictInfo{Tag: tag, Provider: providerName, Description: providerDesc})
	})
	s.send(ListDictsResponse{ID: req.ID, Dicts: dicts, Count: len(dicts)})
}

func (s *Server) handleFreeDict(req Request) {
	dict, ok := s.dicts[req.Tag]
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("no open dictionary for %s", req.Tag))
		return
	}
	delete(s.dicts, req.Tag)
	s.broker.FreeDict(dict)
	s.send(StatusResponse{ID: req.ID, Status: "ok"})
}

// dict returns the open dictionary for tag, opening it on first use.
func (s *Server) dict(tag string) (*broker.Dict, error) {
	if tag == "" {
		return nil, errors.New("missing 'tag' parameter")
	}
	if dict, ok := s.dicts[tag]; ok {
		return dict, nil
	}
	dict, err := s.broker.RequestDict(tag)
	if err != nil {
		return nil, err
	}
	s.dicts[tag] = dict
	return dict, nil
}

func (s *Server) send(response interface{}) {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string) {
	s.send(StatusResponse{ID: id, Status: "error", Error: message})
}

func (s *Server) shutdown() {
	for tag, dict := range s.dicts {
		s.broker.FreeDict(dict)
		delete(s.dicts, tag)
	}
}
