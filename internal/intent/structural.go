package intent

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/resonance-lang/resonance/internal/dsl/ast"
)

// ASTHash identifies a parsed program by the hash of the source text it
// was parsed from — cheap to compute, and exactly what §4.J's staleness
// check needs: "proposals that reference an ast_hash other than the
// current one are rejected as stale" means a textual identity check, not
// a structural AST comparison.
type ASTHash string

// HashSource computes the ASTHash for a source string.
func HashSource(src string) ASTHash {
	sum := sha256.Sum256([]byte(src))
	return ASTHash(hex.EncodeToString(sum[:]))
}

// ProposalState is where a structural proposal sits in its lifecycle.
type ProposalState int

const (
	Idle ProposalState = iota
	Proposed
	Applying
)

func (s ProposalState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Proposed:
		return "proposed"
	case Applying:
		return "applying"
	default:
		return "unknown"
	}
}

// Proposal is an AST-level diff awaiting explicit accept/reject, grounded
// on the teacher's MsgToModel broker idiom (tracker/broker.go) for how a
// pending change is surfaced to a single consumer before being acted on.
type Proposal struct {
	BeforeASTHash ASTHash
	AfterAST      *ast.Program
	AfterSource   string
	Summary       string
}

// StructuralProcessor tracks at most one pending Proposal at a time and
// enforces the accept/reject/staleness state machine of §4.J and §8
// scenario 5.
type StructuralProcessor struct {
	mu       sync.Mutex
	state    ProposalState
	current  *Proposal
	curHash  ASTHash // the hash of the program currently live (post last accept)
}

// NewStructuralProcessor creates a processor tracking currentHash as the
// live program's identity.
func NewStructuralProcessor(currentHash ASTHash) *StructuralProcessor {
	return &StructuralProcessor{state: Idle, curHash: currentHash}
}

// CurrentHash returns the hash of the program currently considered live.
func (p *StructuralProcessor) CurrentHash() ASTHash {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.curHash
}

// State returns the processor's current lifecycle state.
func (p *StructuralProcessor) State() ProposalState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Propose stages prop for acceptance. It is rejected as stale if prop's
// BeforeASTHash no longer matches the live program (§8 scenario 5: the
// user edited between proposal generation and now).
func (p *StructuralProcessor) Propose(prop *Proposal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prop.BeforeASTHash != p.curHash {
		return fmt.Errorf("stale proposal: built against %s, current is %s", prop.BeforeASTHash, p.curHash)
	}
	p.current = prop
	p.state = Proposed
	return nil
}

// Accept moves a Proposed proposal into Applying and returns it for the
// caller to feed to the compiler (component E). The caller is responsible
// for calling Applied once the new bundle is published, which resets the
// processor back to Idle with the accepted program as the new live hash.
func (p *StructuralProcessor) Accept() (*Proposal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Proposed {
		return nil, fmt.Errorf("no proposal pending: state is %s", p.state)
	}
	// Re-check staleness at accept time too: the live program could have
	// moved on between Propose and Accept if another edit landed first.
	if p.current.BeforeASTHash != p.curHash {
		err := fmt.Errorf("stale proposal: built against %s, current is %s", p.current.BeforeASTHash, p.curHash)
		p.state = Idle
		p.current = nil
		return nil, err
	}
	p.state = Applying
	return p.current, nil
}

// Applied finalizes an accepted proposal: the live hash advances to the
// newly-compiled program's hash and the processor returns to Idle.
func (p *StructuralProcessor) Applied(newHash ASTHash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.curHash = newHash
	p.current = nil
	p.state = Idle
}

// Reject discards the pending proposal without applying it.
func (p *StructuralProcessor) Reject() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.state = Idle
}
