package chess

import "errors"

var (
	ErrMalformedNotation   = errors.New("malformed square notation")
	ErrMalformedGuess      = errors.New("malformed guess")
	ErrMalformedFEN        = errors.New("malformed fen")
	ErrGenerationExhausted = errors.New("puzzle generation exhausted")
	ErrNoLegalMoves        = errors.New("selected piece has no legal moves")

	ErrInvalidGuess       = errors.New("invalid guess")
	ErrNoPieceAtOrigin    = errors.New("no piece at origin square")
	ErrPieceMismatch      = errors.New("piece at origin does not match guess")
	ErrIllegalDestination = errors.New("destination is not a legal move")

	ErrOffBoard       = errors.New("square is off the board")
	ErrSquareOccupied = errors.New("square already occupied")
	ErrDuplicateKing  = errors.New("more than one king for a color")
)
