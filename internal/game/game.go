package game

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	models "github.com/CodeAndHammer/eventdle/internal/models"
	util "github.com/CodeAndHammer/eventdle/internal/util"
)

func NormalizeGuess(input string) string {
	return strings.ToLower(input)
}

// Evaluate compares guess against secret character by character.
//
// A character that is not in its place counts as misplaced whenever it occurs
// anywhere in the secret. Occurrences are not counted off, so a letter repeated
// in the guess can be reported misplaced more often than it appears.
func Evaluate(guess, secret string) models.GuessResult {
	result := models.GuessResult{
		CorrectIndexes: []int{},
		WrongPlaces:    []models.WrongPlace{},
	}

	guessRunes := []rune(guess)
	secretRunes := []rune(secret)

	if len(guessRunes) != len(secretRunes) {
		return result
	}

	if guess == secret {
		result.Correct = true
		result.CorrectIndexes = lo.Range(len(secretRunes))
		return result
	}

	for i, r := range guessRunes {
		switch {
		case r == secretRunes[i]:
			result.CorrectIndexes = append(result.CorrectIndexes, i)
		case strings.ContainsRune(secret, r):
			result.WrongPlaces = append(result.WrongPlaces, models.WrongPlace{Index: i, Char: string(r)})
		}
	}

	return result
}

// StartGame picks a question and one of its events and encodes them into a
// token. The length is in characters so the client can lay out its slots.
func StartGame(app *models.App, ctx context.Context) (models.StartGameResponse, error) {
	question, err := app.Catalog.PickQuestion()
	if err != nil {
		return models.StartGameResponse{}, fmt.Errorf("pick question: %w", err)
	}

	event, err := app.Catalog.PickEvent(question)
	if err != nil {
		return models.StartGameResponse{}, fmt.Errorf("pick event: %w", err)
	}

	util.LogInfoCtx(ctx, "Started game for question %d (%d characters)", question, utf8.RuneCountInString(event))

	return models.StartGameResponse{
		Question: question,
		Hash:     app.Codec.Encode(question, event),
		Length:   utf8.RuneCountInString(event),
	}, nil
}

// CheckGuess decodes the token and evaluates the normalized guess against the
// secret it carries. Decoding errors wrap codec.ErrMalformedToken.
func CheckGuess(app *models.App, ctx context.Context, token, guess string) (models.GuessResult, error) {
	question, secret, err := app.Codec.Decode(token)
	if err != nil {
		util.LogWarnCtx(ctx, "Rejected token: %v", err)
		return models.GuessResult{}, err
	}

	result := Evaluate(NormalizeGuess(guess), secret)
	if result.Correct {
		util.LogInfoCtx(ctx, "Correct guess for question %d", question)
	}
	return result, nil
}

