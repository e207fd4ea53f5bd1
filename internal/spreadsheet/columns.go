package spreadsheet

import "fmt"

const alphabetSize = 26

// ColumnNumberToLetter converts a 1-based column number to its spreadsheet
// letter form ("A", "Z", "AA", ...). Column letters are base-26 with no zero
// digit, so the usual positional conversion subtracts one before each step.
func ColumnNumberToLetter(n int) string {
	if n < 1 {
		return ""
	}
	letters := make([]byte, 0, 3)
	for n > 0 {
		rem := (n - 1) % alphabetSize
		letters = append(letters, byte('A'+rem))
		n = (n - 1) / alphabetSize
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// ColumnLetterToNumber converts a column letter ("A", "AB") back to its
// 1-based number. Returns an error for empty input or non A-Z characters.
func ColumnLetterToNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("column letter is empty")
	}
	n := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", letters)
		}
		n = n*alphabetSize + int(r-'A') + 1
	}
	return n, nil
}

// OffsetColumn returns the column letter offset columns to the right of the
// given column. An offset of zero returns the column unchanged.
func OffsetColumn(column string, offset int) (string, error) {
	n, err := ColumnLetterToNumber(column)
	if err != nil {
		return "", err
	}
	target := n + offset
	if target < 1 {
		return "", fmt.Errorf("column offset %d from %q is out of range", offset, column)
	}
	return ColumnNumberToLetter(target), nil
}
