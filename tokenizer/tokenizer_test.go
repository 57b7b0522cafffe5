package tokenizer

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func collectTypes(t *testing.T, tok *Tokenizer) []TokenType {
	t.Helper()

	var types []TokenType

	for token, err := range tok.Tokens() {
		assert.NoError(t, err)

		types = append(types, token.Type)

		if token.Type == EOF {
			break
		}
	}

	return types
}

func TestTokenIterator(t *testing.T) {
	sql := "SELECT id, name FROM users WHERE active = true;"
	tok := New(sql, Options{})

	expected := []TokenType{
		KEYWORD, WHITESPACE, IDENTIFIER, COMMA, WHITESPACE, IDENTIFIER, WHITESPACE,
		KEYWORD, WHITESPACE, IDENTIFIER, WHITESPACE, KEYWORD, WHITESPACE, IDENTIFIER,
		WHITESPACE, EQUAL, WHITESPACE, KEYWORD, SEMICOLON, EOF,
	}

	assert.Equal(t, expected, collectTypes(t, tok))
}

func TestTokenIteratorWithOptions(t *testing.T) {
	sql := "SELECT id, name FROM users -- comment\nWHERE active = true;"
	tok := New(sql, Options{SkipWhitespace: true, SkipComments: true})

	expected := []TokenType{
		KEYWORD, IDENTIFIER, COMMA, IDENTIFIER, KEYWORD, IDENTIFIER, KEYWORD, IDENTIFIER, EQUAL, KEYWORD, SEMICOLON, EOF,
	}

	assert.Equal(t, expected, collectTypes(t, tok))
}

func TestIteratorEarlyTermination(t *testing.T) {
	sql := "SELECT id, name FROM users WHERE active = true;"
	tok := New(sql, Options{})

	count := 0

	for _, err := range tok.Tokens() {
		assert.NoError(t, err)

		count++

		if count >= 5 {
			break
		}
	}

	assert.Equal(t, 5, count)
}

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "single keyword",
			input:    "SELECT",
			expected: []TokenType{KEYWORD, EOF},
		},
		{
			name:     "basic SELECT statement",
			input:    "SELECT id, name FROM users",
			expected: []TokenType{KEYWORD, WHITESPACE, IDENTIFIER, COMMA, WHITESPACE, IDENTIFIER, WHITESPACE, KEYWORD, WHITESPACE, IDENTIFIER, EOF},
		},
		{
			name:     "WHERE clause with condition",
			input:    "WHERE id = 123",
			expected: []TokenType{KEYWORD, WHITESPACE, IDENTIFIER, WHITESPACE, EQUAL, WHITESPACE, NUMBER, EOF},
		},
		{
			name:     "parentheses",
			input:    "SELECT (id)",
			expected: []TokenType{KEYWORD, WHITESPACE, OPENED_PARENS, IDENTIFIER, CLOSED_PARENS, EOF},
		},
		{
			name:     "single quoted string",
			input:    "'abc'",
			expected: []TokenType{STRING, EOF},
		},
		{
			name:     "double quoted identifier",
			input:    `"col"`,
			expected: []TokenType{QUOTED_IDENTIFIER, EOF},
		},
		{
			name:     "single quote with double inside",
			input:    `'a"b'`,
			expected: []TokenType{STRING, EOF},
		},
		{
			name:     "escaped single quote (doubled)",
			input:    "'a''b'",
			expected: []TokenType{STRING, EOF},
		},
		{
			name:     "escaped double quote (doubled)",
			input:    `"a""b"`,
			expected: []TokenType{QUOTED_IDENTIFIER, EOF},
		},
		{
			name:     "concat operator",
			input:    "a || b",
			expected: []TokenType{IDENTIFIER, WHITESPACE, CONCAT, WHITESPACE, IDENTIFIER, EOF},
		},
		{
			name:  "comparison operators",
			input: "a <> b <= c >= d",
			expected: []TokenType{
				IDENTIFIER, WHITESPACE, NOT_EQUAL, WHITESPACE, IDENTIFIER, WHITESPACE,
				LESS_EQUAL, WHITESPACE, IDENTIFIER, WHITESPACE, GREATER_EQUAL, WHITESPACE, IDENTIFIER, EOF,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tok := New(test.input, Options{})
			assert.Equal(t, test.expected, collectTypes(t, tok))
		})
	}
}

func TestErrorHandling(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectedErr error
	}{
		{
			name:        "unclosed string",
			input:       "SELECT id FROM users WHERE id = 'unclosed string",
			expectedErr: ErrUnterminatedString,
		},
		{
			name:        "unclosed quoted identifier",
			input:       `SELECT "unclosed`,
			expectedErr: ErrUnterminatedQuote,
		},
		{
			name:        "unclosed block comment",
			input:       "SELECT id /* unclosed comment",
			expectedErr: ErrUnterminatedComment,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tok := New(test.input, Options{})

			var foundErr error

			for _, err := range tok.Tokens() {
				if err != nil {
					foundErr = err
					break
				}
			}

			assert.Error(t, foundErr)
			assert.True(t, errors.Is(foundErr, test.expectedErr))
		})
	}
}

func TestTokenPosition(t *testing.T) {
	sql := "SELECT\nid"
	tok := New(sql, Options{})

	var positions []Position

	for token, err := range tok.Tokens() {
		assert.NoError(t, err)

		positions = append(positions, token.Position)

		if token.Type == EOF {
			break
		}
	}

	expected := []Position{
		{Line: 1, Column: 1, Offset: 0},
		{Line: 1, Column: 7, Offset: 6},
		{Line: 2, Column: 1, Offset: 7},
		{Line: 2, Column: 3, Offset: 9},
	}

	assert.Equal(t, expected, positions)
}

func TestComplexSQL(t *testing.T) {
	sql := `
	WITH RECURSIVE employee_hierarchy AS (
		SELECT employee_id, name, manager_id, 0 as level
		FROM employees
		WHERE manager_id IS NULL
		UNION ALL
		SELECT e.employee_id, e.name, e.manager_id, eh.level + 1
		FROM employees e
		INNER JOIN employee_hierarchy eh ON e.manager_id = eh.employee_id
	)
	SELECT eh.name, eh.level
	FROM employee_hierarchy eh
	WHERE eh.level <= 5
	ORDER BY eh.level, eh.name;
	`

	tok := New(sql, Options{SkipWhitespace: true})

	var count int

	for token, err := range tok.Tokens() {
		assert.NoError(t, err)

		count++

		if token.Type == EOF {
			break
		}
	}

	assert.True(t, count > 50)
}
