// Package deckbuilder runs the full pipeline: load games, find the
// blunders, ask the engine what should have been played, render the
// positions, and write the deck.
package deckbuilder

import (
	"context"
	"fmt"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blunderdeck/blunderdeck/internal/anki"
	"github.com/blunderdeck/blunderdeck/internal/blunder"
	"github.com/blunderdeck/blunderdeck/internal/boardimg"
	"github.com/blunderdeck/blunderdeck/internal/config"
	"github.com/blunderdeck/blunderdeck/internal/gamesource"
	"github.com/blunderdeck/blunderdeck/internal/notation"
	"github.com/blunderdeck/blunderdeck/internal/uci"
)

// engineFunc scopes one game's analysis to a live evaluator. The
// production implementation starts an engine subprocess and terminates
// it when fn returns; tests substitute a scripted evaluator.
type engineFunc func(ctx context.Context, fn func(blunder.Evaluator) error) error

// Builder assembles a blunder study deck from the configured PGN file.
type Builder struct {
	cfg        *config.Config
	logger     *zap.Logger
	renderer   boardimg.Renderer
	withEngine engineFunc
}

// New wires a builder against the real engine binary named in cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Builder{
		cfg:      cfg,
		logger:   logger,
		renderer: boardimg.NewPNGRenderer(),
	}
	b.withEngine = func(ctx context.Context, fn func(blunder.Evaluator) error) error {
		opt := uci.Options{
			Threads: cfg.Engine.Threads,
			HashMB:  cfg.Engine.HashMB,
			MultiPV: cfg.Engine.MultiPV,
		}
		return uci.WithSession(ctx, cfg.EnginePath, opt, logger, func(s *uci.Session) error {
			return fn(s)
		})
	}
	return b, nil
}

// Run analyzes every game and writes the deck package. Each game gets
// one engine session covering both detection and annotation. Returns
// the path of the written file.
func (b *Builder) Run(ctx context.Context) (string, error) {
	games, err := gamesource.Load(b.cfg.PGNPath)
	if err != nil {
		return "", err
	}

	filter := blunder.ParseFilter(b.cfg.Player)
	deckID := anki.NewID()
	deck := anki.NewDeck(deckID, b.cfg.DeckName)
	model := NewModel(anki.NewID())

	outputPath := b.cfg.OutputPath
	if outputPath == "" {
		outputPath = fmt.Sprintf("anki_deck_%d.apkg", deckID)
	}

	b.logger.Info("starting analysis",
		zap.Int("games", len(games)),
		zap.String("filter", filter.String()),
		zap.Int("threshold", b.cfg.Threshold))

	var media []anki.MediaFile
	for gi, game := range games {
		meta := gamesource.ExtractMetadata(game)
		b.logger.Info("analyzing game",
			zap.Int("game", gi+1),
			zap.String("white", meta.White),
			zap.String("black", meta.Black),
			zap.String("result", meta.Result))

		err := b.withEngine(ctx, func(eval blunder.Evaluator) error {
			detector, err := blunder.NewDetector(eval, blunder.DetectorConfig{
				Filter:    filter,
				Threshold: b.cfg.Threshold,
				MoveTime:  b.cfg.EngineTime,
			}, b.logger)
			if err != nil {
				return err
			}
			records, err := detector.Detect(ctx, game, meta)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return nil
			}

			annotator, err := blunder.NewAnnotator(eval,
				b.cfg.Annotation.Depth, b.cfg.Annotation.MaxPlies, b.logger)
			if err != nil {
				return err
			}
			for _, rec := range records {
				note, img, err := b.buildNote(ctx, model, game, meta, annotator, rec, len(deck.Notes)+1)
				if err != nil {
					return err
				}
				deck.AddNote(note)
				media = append(media, img)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("analyze game %d: %w", gi+1, err)
		}
	}

	pkg := anki.Package{Deck: deck, Media: media}
	if err := pkg.WriteToFile(ctx, outputPath); err != nil {
		return "", err
	}
	b.logger.Info("deck written",
		zap.String("path", outputPath),
		zap.Int("notes", len(deck.Notes)))
	return outputPath, nil
}

// buildNote turns one blunder record into a note plus its rendered
// board image. seq numbers the media file within the deck.
func (b *Builder) buildNote(ctx context.Context, model *anki.Model, game *nchess.Game, meta gamesource.Metadata, annotator *blunder.Annotator, rec blunder.Record, seq int) (anki.Note, anki.MediaFile, error) {
	moveCount := len(game.Moves())
	positionSAN := notation.MainlineSAN(game, 0, rec.Ply)
	continuationSAN := notation.MainlineSAN(game, rec.Ply, moveCount)

	bestLine, err := annotator.BestContinuation(ctx, game, rec.Ply)
	if err != nil {
		return anki.Note{}, anki.MediaFile{}, err
	}

	imageData, err := b.renderBoard(ctx, game, rec.Ply)
	if err != nil {
		return anki.Note{}, anki.MediaFile{}, fmt.Errorf("render board at ply %d: %w", rec.Ply, err)
	}
	imageName := fmt.Sprintf("blunder-%d.png", seq)

	puzzleID := fmt.Sprintf("%s - %s vs %s ", meta.Date, meta.White, meta.Black)
	note := anki.Note{
		Model: model,
		GUID:  noteGUID(puzzleID, positionSAN),
		Fields: []string{
			puzzleID,
			positionSAN,
			continuationSAN,
			bestLine,
			meta.White,
			meta.Black,
			meta.Result,
			meta.Date,
			meta.Site,
			meta.Event,
			meta.WhiteElo,
			meta.BlackElo,
			meta.WhiteRatingDiff,
			meta.BlackRatingDiff,
			meta.Variant,
			meta.TimeControl,
			meta.ECO,
			meta.Termination,
			fmt.Sprintf(`<img src="%s">`, imageName),
		},
	}
	return note, anki.MediaFile{Name: imageName, Data: imageData}, nil
}

// renderBoard draws the position the blunder was played from, oriented
// for the side to move, with the opponent's last move highlighted.
func (b *Builder) renderBoard(ctx context.Context, game *nchess.Game, ply int) ([]byte, error) {
	positions := game.Positions()
	moves := game.Moves()
	if ply < 0 || ply >= len(positions) {
		return nil, fmt.Errorf("ply %d out of range for %d positions", ply, len(positions))
	}

	opts := boardimg.Options{Orientation: positions[ply].Turn()}
	if ply > 0 && ply-1 < len(moves) {
		mv := moves[ply-1]
		opts.Highlight = &boardimg.MoveHighlight{From: mv.S1(), To: mv.S2()}
	}
	return b.renderer.RenderPNG(ctx, positions[ply].Board(), opts)
}

// noteGUID derives a stable identity from the puzzle heading and the
// moves leading to it, so re-importing an overlapping deck updates
// notes instead of duplicating them.
func noteGUID(puzzleID, positionSAN string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(puzzleID+"\x1f"+positionSAN)).String()
}
