// Package extrinsic implements the transaction lifecycle: building unsigned
// and partial transactions from encoded call data, signing them, submitting
// them to a node and interpreting the validation and status results that
// come back.
//
// Two wire formats are supported. Legacy (v4) transactions wrap the call in
// a signature plus a fixed set of signed extensions. General (v5)
// transactions carry an open set of transaction extensions instead, with the
// signature provided through one of them. Which format is built is decided
// by the chain metadata, never guessed.
package extrinsic

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"golang.org/x/crypto/blake2b"
)

// Hasher computes the hash of encoded transaction bytes. Chains configure
// this; BlakeTwo256 is the default used by almost every Substrate chain.
type Hasher func(data []byte) types.Hash

// BlakeTwo256 is the standard 256-bit blake2b hasher.
func BlakeTwo256(data []byte) types.Hash {
	h := blake2b.Sum256(data)
	return types.NewHash(h[:])
}

// Client builds, signs and submits transactions against a single chain.
//
// Offline operations (CreateUnsigned, CreatePartialOffline, Validate,
// CallData and friends) consult only the in-memory metadata snapshot and
// never perform I/O. Online operations (CreatePartial, AccountNonce, and
// everything on SubmittableTransaction that talks to the node) go through
// the backend and return ErrOffline when the client was built without one.
//
// A Client is immutable after construction and cheap to share between
// concurrent operations.
type Client struct {
	backend Backend
	meta    *Metadata
	hasher  Hasher
}

// New creates a client over the given backend and metadata snapshot,
// hashing transactions with BlakeTwo256.
func New(backend Backend, meta *Metadata) *Client {
	return NewWithHasher(backend, meta, BlakeTwo256)
}

// NewWithHasher is New with a chain-specific transaction hasher.
func NewWithHasher(backend Backend, meta *Metadata, hasher Hasher) *Client {
	return &Client{
		backend: backend,
		meta:    meta,
		hasher:  hasher,
	}
}

// NewOffline creates a client that can only perform offline operations.
func NewOffline(meta *Metadata) *Client {
	return New(nil, meta)
}

// Metadata returns the metadata snapshot the client was built with.
func (c *Client) Metadata() *Metadata {
	return c.meta
}
