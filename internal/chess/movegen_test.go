package chess

import (
	"sort"
	"testing"
)

func pc(t *testing.T, k Kind, c Color, at string) Piece {
	t.Helper()
	return Piece{Kind: k, Color: c, Square: mustSquare(t, at)}
}

func notations(sqs []Square) []string {
	out := make([]string, 0, len(sqs))
	for _, sq := range sqs {
		out = append(out, ToNotation(sq))
	}
	sort.Strings(out)
	return out
}

func assertMoves(t *testing.T, p Piece, b *Board, want ...string) {
	t.Helper()
	got := notations(LegalMoves(p, b))
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("%s moves = %v, want %v", p, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s moves = %v, want %v", p, got, want)
		}
	}
}

func TestRookOpenLines(t *testing.T) {
	rook := pc(t, Rook, White, "b2")
	b := MustBoard(rook, pc(t, King, White, "h8"), pc(t, King, Black, "d5"))
	assertMoves(t, rook, b,
		"a2", "c2", "d2", "e2", "f2", "g2", "h2",
		"b1", "b3", "b4", "b5", "b6", "b7", "b8")
}

func TestRookBlockedByOwnAndEnemy(t *testing.T) {
	rook := pc(t, Rook, White, "b2")
	b := MustBoard(
		rook,
		pc(t, King, White, "h8"),
		pc(t, King, Black, "d5"),
		pc(t, Pawn, Black, "e2"),
		pc(t, Knight, White, "b5"),
	)
	assertMoves(t, rook, b, "a2", "c2", "d2", "e2", "b1", "b3", "b4")
}

func TestBishopBlocked(t *testing.T) {
	bishop := pc(t, Bishop, Black, "c8")
	b := MustBoard(bishop, pc(t, King, Black, "h8"), pc(t, King, White, "h1"), pc(t, Pawn, Black, "e6"))
	assertMoves(t, bishop, b, "b7", "a6", "d7")
}

func TestPinnedPieceStaysOnLine(t *testing.T) {
	pinned := pc(t, Rook, White, "e2")
	king := pc(t, King, White, "e1")
	b := MustBoard(pinned, king, pc(t, Rook, Black, "e8"), pc(t, King, Black, "a8"))
	assertMoves(t, pinned, b, "e3", "e4", "e5", "e6", "e7", "e8")
	assertMoves(t, king, b, "d1", "f1", "d2", "f2")
}

func TestKingAvoidsAttackedSquares(t *testing.T) {
	king := pc(t, King, White, "e1")
	b := MustBoard(king, pc(t, Rook, Black, "a2"), pc(t, King, Black, "h8"))
	assertMoves(t, king, b, "d1", "f1")
}

func TestKingCannotCaptureDefendedPiece(t *testing.T) {
	king := pc(t, King, White, "e1")
	b := MustBoard(king, pc(t, Knight, Black, "e2"), pc(t, Rook, Black, "e8"), pc(t, King, Black, "a8"))
	// e2 is defended along the e-file once the knight is gone.
	for _, sq := range LegalMoves(king, b) {
		if ToNotation(sq) == "e2" {
			t.Fatalf("king may not capture a defended piece")
		}
	}
}

func TestPawnPushAndCaptures(t *testing.T) {
	pawn := pc(t, Pawn, White, "e4")
	b := MustBoard(pawn, pc(t, King, White, "a1"), pc(t, King, Black, "h8"), pc(t, Knight, Black, "d5"))
	assertMoves(t, pawn, b, "e5", "d5")

	blocked := MustBoard(pawn, pc(t, King, White, "a1"), pc(t, King, Black, "h8"), pc(t, Knight, Black, "e5"))
	assertMoves(t, pawn, blocked)

	blackPawn := pc(t, Pawn, Black, "c7")
	b2 := MustBoard(blackPawn, pc(t, King, White, "a1"), pc(t, King, Black, "h8"), pc(t, Bishop, White, "b6"))
	assertMoves(t, blackPawn, b2, "c6", "b6")
}

func TestKnightJumpsOverPieces(t *testing.T) {
	knight := pc(t, Knight, White, "g1")
	b := MustBoard(
		knight,
		pc(t, King, White, "e1"),
		pc(t, King, Black, "e8"),
		pc(t, Pawn, White, "f2"),
		pc(t, Pawn, White, "g2"),
		pc(t, Pawn, White, "h2"),
		pc(t, Pawn, White, "e2"),
	)
	assertMoves(t, knight, b, "f3", "h3")
}

func TestLegalMovesNeverLeaveKingAttacked(t *testing.T) {
	g := NewGenerator(WithSeed(7))
	for i := 0; i < 50; i++ {
		b, err := g.GenerateBoard()
		if err != nil {
			t.Fatalf("GenerateBoard: %v", err)
		}
		for _, p := range b.Pieces() {
			for _, to := range LegalMoves(p, b) {
				if IsInCheck(p.Color, b.withMove(p.Square, to)) {
					t.Fatalf("%s to %s leaves own king attacked on %s", p, to, b.FEN(p.Color))
				}
			}
		}
	}
}

func TestLegalMovesDoesNotMutateBoard(t *testing.T) {
	rook := pc(t, Rook, White, "b2")
	b := MustBoard(rook, pc(t, King, White, "h8"), pc(t, King, Black, "d5"), pc(t, Pawn, Black, "e2"))
	before := b.FEN(White)
	_ = LegalMoves(rook, b)
	_ = AllLegalMoves(White, b)
	if after := b.FEN(White); after != before {
		t.Fatalf("board changed: %s -> %s", before, after)
	}
}

func TestAttacksRequiresClearPath(t *testing.T) {
	rook := pc(t, Rook, White, "a8")
	open := MustBoard(rook, pc(t, King, Black, "h8"), pc(t, King, White, "a1"))
	if !Attacks(rook, open) {
		t.Fatalf("rook on open rank should attack king")
	}
	blocked := MustBoard(rook, pc(t, King, Black, "h8"), pc(t, King, White, "a1"), pc(t, Knight, White, "d8"))
	if Attacks(rook, blocked) {
		t.Fatalf("rook behind a blocker must not attack")
	}
	noKing := MustBoard(rook, pc(t, King, White, "a1"))
	if Attacks(rook, noKing) {
		t.Fatalf("no opposing king means no attack")
	}
}

func TestPawnAttacksOnlyForward(t *testing.T) {
	white := pc(t, Pawn, White, "d4")
	b := MustBoard(white, pc(t, King, Black, "e5"), pc(t, King, White, "a1"))
	if !Attacks(white, b) {
		t.Fatalf("white pawn d4 attacks e5")
	}
	b = MustBoard(white, pc(t, King, Black, "e3"), pc(t, King, White, "a1"))
	if Attacks(white, b) {
		t.Fatalf("white pawn d4 does not attack e3")
	}
	b = MustBoard(white, pc(t, King, Black, "d5"), pc(t, King, White, "a1"))
	if Attacks(white, b) {
		t.Fatalf("pawns do not attack straight ahead")
	}
}
