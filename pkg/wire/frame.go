// Package wire implements the signed frame format and the textual ticket
// format that carry every chat event and every topic invite (spec.md §3,
// §4.1, §4.2).
//
// A frame on the wire is node_id(32) || signature(64) || payload, where
// payload is the canonical-CBOR encoding of an Envelope. The signer is
// recovered solely from the leading node_id; nothing about `from` is
// embedded in the signed payload itself (spec.md §9).
package wire

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/brackenforge/meshchat/pkg/codec/canon"
	"github.com/brackenforge/meshchat/pkg/constants"
)

// ticketEncoding is lowercase, unpadded base32 — safe in URLs and
// terminal copy-paste (spec.md §4.2).
var ticketEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Envelope is the signed payload: a fresh nonce, the local wall-clock at
// construction time, and exactly one Message variant (spec.md §3). Nonce
// is a slice, not a fixed array, so the CBOR encoder emits a byte string
// rather than an array of integers.
type Envelope struct {
	Nonce []byte  `cbor:"nonce"`
	At    int64   `cbor:"at"` // milliseconds since Unix epoch
	Msg   Message `cbor:"msg"`
}

// Message is a structure-tagged union over the five chat variants
// (spec.md §3). Exactly one field is non-nil; Kind names which.
type Message struct {
	Kind      string     `cbor:"kind"`
	AboutMe   *AboutMe   `cbor:"about_me,omitempty"`
	Bye       *Bye       `cbor:"bye,omitempty"`
	Chat      *Chat      `cbor:"chat,omitempty"`
	SendFile  *SendFile  `cbor:"send_file,omitempty"`
	ShareFile *ShareFile `cbor:"share_file,omitempty"`
}

// Variant kind discriminants.
const (
	KindAboutMe   = "about_me"
	KindBye       = "bye"
	KindChat      = "message"
	KindSendFile  = "send_file"
	KindShareFile = "share_file"
)

// AboutMe is an identity announcement.
type AboutMe struct {
	Name string `cbor:"name"`
}

// Bye is a voluntary departure notice.
type Bye struct{}

// Chat is free-text chat (spec.md's `Message{text}` variant).
type Chat struct {
	Text string `cbor:"text"`
}

// SendFile embeds a small file's bytes directly in the frame.
type SendFile struct {
	Filename string `cbor:"filename"`
	Content  []byte `cbor:"content"`
}

// ShareFile points at a content-addressed blob served by a named node.
type ShareFile struct {
	Filename string     `cbor:"filename"`
	Size     uint64     `cbor:"size"`
	Ticket   BlobTicket `cbor:"ticket"`
}

// NewAboutMe wraps an AboutMe variant.
func NewAboutMe(name string) Message { return Message{Kind: KindAboutMe, AboutMe: &AboutMe{Name: name}} }

// NewBye wraps a Bye variant.
func NewBye() Message { return Message{Kind: KindBye, Bye: &Bye{}} }

// NewChat wraps a Chat variant.
func NewChat(text string) Message { return Message{Kind: KindChat, Chat: &Chat{Text: text}} }

// NewSendFile wraps a SendFile variant.
func NewSendFile(filename string, content []byte) Message {
	return Message{Kind: KindSendFile, SendFile: &SendFile{Filename: filename, Content: content}}
}

// NewShareFile wraps a ShareFile variant.
func NewShareFile(filename string, size uint64, ticket BlobTicket) Message {
	return Message{Kind: KindShareFile, ShareFile: &ShareFile{Filename: filename, Size: size, Ticket: ticket}}
}

// Seal builds a fresh envelope around msg, signs its canonical encoding
// with priv, and returns the full frame bytes: node_id || signature ||
// payload (spec.md §4.1).
func Seal(nodeID [constants.NodeIDSize]byte, priv ed25519.PrivateKey, msg Message) ([]byte, error) {
	nonce := make([]byte, constants.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wire: seal: generate nonce: %w", err)
	}

	env := Envelope{Nonce: nonce, At: time.Now().UnixMilli(), Msg: msg}
	payload, err := canon.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: seal: encode envelope: %w", err)
	}

	sig := ed25519.Sign(priv, payload)

	frame := make([]byte, 0, constants.NodeIDSize+constants.SignatureSize+len(payload))
	frame = append(frame, nodeID[:]...)
	frame = append(frame, sig...)
	frame = append(frame, payload...)
	return frame, nil
}

// Open decodes a frame produced by Seal, rejecting it with a distinct
// recoverable error at the first invariant violated (spec.md §4.1,
// invariant 1 and 3 of §8): too short, bad signature, malformed payload,
// or an invalid timestamp.
func Open(frame []byte) (signer [constants.NodeIDSize]byte, at time.Time, msg Message, err error) {
	if len(frame) <= constants.MinFrameSize {
		err = ErrShortFrame
		return
	}

	copy(signer[:], frame[:constants.NodeIDSize])
	sig := frame[constants.NodeIDSize:constants.MinFrameSize]
	payload := frame[constants.MinFrameSize:]

	if !ed25519.Verify(signer[:], payload, sig) {
		err = ErrInvalidSignature
		return
	}

	var env Envelope
	if decErr := canon.Unmarshal(payload, &env); decErr != nil {
		err = fmt.Errorf("%w: %v", ErrMalformedPayload, decErr)
		return
	}

	// A negative `at` predates the Unix epoch, which no honestly-clocked
	// sender can produce (spec.md §4.1's fourth distinct recoverable
	// error). `at` is otherwise advisory only; no clock-skew check is
	// performed here (spec.md §9).
	if env.At < 0 {
		err = ErrInvalidTimestamp
		return
	}

	at = time.UnixMilli(env.At).Local()
	msg = env.Msg
	return
}

// TopicTicket is the bootstrap invite: a topic id plus a seed set of
// peer-address records (spec.md §3, §6). Topic is a slice on the wire
// (CBOR byte string); callers that need a fixed-size, comparable topic
// id use TopicID alongside it.
type TopicTicket struct {
	Topic []byte     `cbor:"topic"`
	Nodes []NodeAddr `cbor:"nodes"`
}

// TopicID returns the ticket's topic as a fixed-size array, zero-padded
// or truncated defensively if malformed input ever reaches this far.
func (t TopicTicket) TopicID() [32]byte {
	var id [32]byte
	copy(id[:], t.Topic)
	return id
}

// NodeAddr is one seed peer: its node id, an optional relay URL, and a
// list of direct socket addresses.
type NodeAddr struct {
	NodeID          []byte   `cbor:"node_id"`
	RelayURL        string   `cbor:"relay_url,omitempty"`
	DirectAddresses []string `cbor:"direct_addresses,omitempty"`
}

// NodeIDArray returns addr's node id as a fixed-size array.
func (addr NodeAddr) NodeIDArray() [constants.NodeIDSize]byte {
	var id [constants.NodeIDSize]byte
	copy(id[:], addr.NodeID)
	return id
}

// NewTopic draws a fresh random 32-byte topic id (spec.md §3, the
// opener's "uniform random draw").
func NewTopic() ([32]byte, error) {
	var topic [32]byte
	if _, err := rand.Read(topic[:]); err != nil {
		return topic, fmt.Errorf("wire: new topic: %w", err)
	}
	return topic, nil
}

// EncodeTicket renders a TopicTicket as lowercase base32-nopad text.
func EncodeTicket(t TopicTicket) (string, error) {
	data, err := canon.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("wire: encode ticket: %w", err)
	}
	return strings.ToLower(ticketEncoding.EncodeToString(data)), nil
}

// DecodeTicket parses ticket text into a TopicTicket. Parsing is
// case-insensitive (spec.md §4.2).
func DecodeTicket(text string) (TopicTicket, error) {
	data, err := ticketEncoding.DecodeString(strings.ToUpper(strings.TrimSpace(text)))
	if err != nil {
		return TopicTicket{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	var t TopicTicket
	if err := canon.Unmarshal(data, &t); err != nil {
		return TopicTicket{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	return t, nil
}

// BlobTicket is the textual reference for a content-addressed object:
// the providing node, the content hash, and its storage format (spec.md
// §4.7, GLOSSARY).
type BlobTicket struct {
	NodeID []byte `cbor:"node_id"`
	Hash   []byte `cbor:"hash"`
	Format string `cbor:"format"`
}

// NodeIDArray returns the ticket's provider node id as a fixed-size array.
func (t BlobTicket) NodeIDArray() [constants.NodeIDSize]byte {
	var id [constants.NodeIDSize]byte
	copy(id[:], t.NodeID)
	return id
}

// HashArray returns the ticket's content hash as a fixed-size array.
func (t BlobTicket) HashArray() [32]byte {
	var h [32]byte
	copy(h[:], t.Hash)
	return h
}

// EncodeBlobTicket renders a BlobTicket as lowercase base32-nopad text,
// the same textual convention as TopicTicket.
func EncodeBlobTicket(t BlobTicket) (string, error) {
	data, err := canon.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("wire: encode blob ticket: %w", err)
	}
	return strings.ToLower(ticketEncoding.EncodeToString(data)), nil
}

// DecodeBlobTicket parses blob ticket text, case-insensitively.
func DecodeBlobTicket(text string) (BlobTicket, error) {
	data, err := ticketEncoding.DecodeString(strings.ToUpper(strings.TrimSpace(text)))
	if err != nil {
		return BlobTicket{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	var t BlobTicket
	if err := canon.Unmarshal(data, &t); err != nil {
		return BlobTicket{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	return t, nil
}
