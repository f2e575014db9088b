// Package server implements the LLMdig request pipeline: the UDP listener,
// the per-datagram handler, per-client rate limiting, and runtime counters.
//
// Goroutine Model:
//
// The listener runs one receive loop on a single socket and spawns a
// goroutine per datagram. The only operations that can suspend a request
// goroutine are the backend HTTP call and the single-flight wait for a
// concurrent builder; decode, sanitize, admission, and packing complete
// synchronously. Responses may therefore be emitted out of order with
// respect to arrival, which DNS clients handle via the transaction ID.
//
// Error Handling:
//
// Per-request errors never escape their goroutine; they map to DNS response
// codes (or to a silent drop when the datagram cannot be decoded) and the
// listener keeps serving. Only bind and configuration errors are fatal.
package server

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	"github.com/llmdig/llmdig/internal/cache"
	"github.com/llmdig/llmdig/internal/dns"
	"github.com/llmdig/llmdig/internal/llm"
	"github.com/llmdig/llmdig/internal/question"
)

// EmptyAnswerText is packed when the backend returns an empty string.
const EmptyAnswerText = "No response"

// DefaultAnswerTTL is the TTL carried by answer TXT records.
const DefaultAnswerTTL = 300 * time.Second

// Handler processes one decoded datagram at a time through the pipeline:
// admission, classification, extraction, cache lookup, backend dispatch,
// TXT packing.
type Handler struct {
	Logger  *slog.Logger
	Client  *llm.Client   // backend abstraction
	Cache   *cache.Cache  // fingerprint -> answer
	Limiter *RateLimiter  // nil or disabled allows everything
	Stats   *Stats        // pipeline counters, optional
	Timeout time.Duration // per-request wall limit
	TTL     time.Duration // answer record TTL

	RateLimitEnabled bool
}

// Handle processes a raw datagram from src and returns the reply bytes, or
// nil when the datagram must be dropped without an answer.
func (h *Handler) Handle(ctx context.Context, src netip.Addr, payload []byte) []byte {
	start := time.Now()
	h.Stats.RecordQuery()
	defer func() { h.Stats.RecordLatency(time.Since(start).Nanoseconds()) }()

	// Decode. An undecodable datagram has no trustworthy ID to answer to.
	req, err := dns.ParseRequest(payload)
	if err != nil {
		h.Stats.RecordDropped()
		h.logDebug(ctx, "dropping malformed datagram", "src", src, "err", err)
		return nil
	}
	q := req.Questions[0]

	// Admission.
	if h.RateLimitEnabled && !h.Limiter.Allow(src) {
		h.Stats.RecordRateLimited()
		h.logDebug(ctx, "rate limited", "src", src, "qname", q.Name)
		return h.errorReply(req, dns.RCodeServFail)
	}

	// Classification: TXT IN only.
	if q.Type != dns.TypeTXT || q.Class != dns.ClassIN {
		h.logDebug(ctx, "unsupported query", "src", src, "qtype", q.Type, "qclass", q.Class)
		return h.errorReply(req, dns.RCodeNotImp)
	}

	// Extraction and safety.
	prompt, err := question.FromDomain(q.Name)
	if err != nil {
		h.logDebug(ctx, "rejected question", "src", src, "qname", q.Name, "err", err)
		return h.errorReply(req, dns.RCodeFormErr)
	}

	// Lookup, dispatching to the backend on a miss. Concurrent misses for
	// the same fingerprint share one backend call.
	ctx, cancel := context.WithTimeout(ctx, h.requestTimeout())
	defer cancel()

	answer, fromCache, err := h.Cache.GetOrBuild(ctx, prompt, func() (string, error) {
		h.Stats.RecordBackendCall()
		text, genErr := h.Client.Query(ctx, prompt)
		if genErr != nil {
			h.Stats.RecordBackendError()
		}
		return text, genErr
	})
	if err != nil {
		h.logError(ctx, "backend query failed", "src", src, "prompt", prompt, "err", err)
		return h.errorReply(req, dns.RCodeServFail)
	}
	if fromCache {
		h.Stats.RecordCacheHit()
	} else {
		h.Stats.RecordCacheMiss()
	}

	h.logInfo(ctx, "answered", "src", src, "prompt", prompt, "cached", fromCache, "bytes", len(answer))
	return h.txtReply(req, answer)
}

// txtReply packs answer into one TXT record per 255-byte chunk.
func (h *Handler) txtReply(req dns.Packet, answer string) []byte {
	resp := dns.BuildResponse(req, dns.RCodeNoError)
	name := req.Questions[0].Name

	if answer == "" {
		answer = EmptyAnswerText
	}
	ttl := uint32(h.answerTTL().Seconds())
	for i := 0; i < len(answer); i += dns.MaxTXTStringLen {
		end := min(i+dns.MaxTXTStringLen, len(answer))
		rr, err := dns.TXT(name, ttl, answer[i:end])
		if err != nil {
			return h.errorReply(req, dns.RCodeServFail)
		}
		resp.Answers = append(resp.Answers, rr)
	}

	out, err := dns.MarshalResponse(resp)
	if err != nil {
		h.Stats.RecordDropped()
		return nil
	}
	h.Stats.RecordOK()
	return out
}

// errorReply encodes an answerless reply with the given response code.
// Encoding failures fall back to a minimal header inside MarshalResponse;
// if even that fails the datagram is dropped.
func (h *Handler) errorReply(req dns.Packet, rcode dns.RCode) []byte {
	out, err := dns.MarshalResponse(dns.BuildResponse(req, rcode))
	if err != nil {
		h.Stats.RecordDropped()
		return nil
	}
	h.Stats.RecordError()
	return out
}

func (h *Handler) requestTimeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return 30 * time.Second
}

func (h *Handler) answerTTL() time.Duration {
	if h.TTL > 0 {
		return h.TTL
	}
	return DefaultAnswerTTL
}

func (h *Handler) logDebug(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.DebugContext(ctx, msg, args...)
	}
}

func (h *Handler) logInfo(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, msg, args...)
	}
}

func (h *Handler) logError(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.ErrorContext(ctx, msg, args...)
	}
}
