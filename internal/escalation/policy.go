package escalation

// Tier is the action the attempt count calls for.
type Tier int

const (
	// TierAsk asks again for whatever is still missing.
	TierAsk Tier = iota
	// TierRedirect sends the automated redirect to ENQUIRY.
	TierRedirect
	// TierBlock sends the final refusal and blocks the identity.
	TierBlock
)

const (
	RedirectAt = 4
	BlockAt    = 5
	// ThreeStrike is the prompt count after which a deposit becomes mandatory.
	ThreeStrike = 3
)

func (t Tier) String() string {
	switch t {
	case TierAsk:
		return "ask"
	case TierRedirect:
		return "redirect"
	case TierBlock:
		return "block"
	}
	return "unknown"
}

// Decide maps an attempt count to its tier.
func Decide(attempts int) Tier {
	switch {
	case attempts >= BlockAt:
		return TierBlock
	case attempts == RedirectAt:
		return TierRedirect
	default:
		return TierAsk
	}
}

// Tone controls how firmly a rewrite should read.
type Tone string

const (
	ToneWarm   Tone = "warm"
	ToneDirect Tone = "direct"
	ToneFirm   Tone = "firm"
)

// ToneFor is a pure function of the attempt count.
func ToneFor(attempts int) Tone {
	switch {
	case attempts <= 1:
		return ToneWarm
	case attempts <= 3:
		return ToneDirect
	default:
		return ToneFirm
	}
}

// Instruction is the rewrite instruction for the tone.
func (t Tone) Instruction() string {
	switch t {
	case ToneWarm:
		return "Make this warmer and friendlier. Keep all information EXACTLY the same."
	case ToneDirect:
		return "Make this more direct and businesslike. Keep all information EXACTLY the same."
	default:
		return "Make this firm and to-the-point. Keep all information EXACTLY the same."
	}
}
