// Package fallback provides pre-validated parser sources for targets the
// refinement loop could not crack. This file contains the hand-written
// ICICI statement parser.
package fallback

// iciciParserSource parses the ICICI text layout: one transaction per line,
// a dd-mm-yyyy date first, description words, then one or two trailing
// amounts (the last is always the running balance). Debit vs credit is
// decided by the balance delta; the first amount-bearing line falls back to
// a keyword check. Lines without a leading date are dropped. Imports stay
// inside the sandbox whitelist.
const iciciParserSource = `package main

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
)

var dateRe = regexp.MustCompile("^[0-9]{2}-[0-9]{2}-[0-9]{4}$")

func cleanNumber(tok string) string {
	return strings.ReplaceAll(tok, ",", "")
}

func isNumeric(tok string) bool {
	cleaned := cleanNumber(tok)
	if cleaned == "" {
		return false
	}
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

func ParseStatement(input string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Date", "Description", "Debit Amt", "Credit Amt", "Balance"})

	prevBalance := 0.0
	havePrev := false

	for _, line := range strings.Split(input, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !dateRe.MatchString(fields[0]) {
			continue
		}

		rest := fields[1:]
		numbers := []string{}
		for len(rest) > 0 && len(numbers) < 2 && isNumeric(rest[len(rest)-1]) {
			numbers = append([]string{cleanNumber(rest[len(rest)-1])}, numbers...)
			rest = rest[:len(rest)-1]
		}
		if len(numbers) == 0 {
			continue
		}

		date := fields[0]
		description := strings.Join(rest, " ")
		balanceText := numbers[len(numbers)-1]
		balance, err := strconv.ParseFloat(balanceText, 64)
		if err != nil {
			continue
		}

		debit := ""
		credit := ""
		if len(numbers) == 2 {
			amount := numbers[0]
			if havePrev {
				if balance < prevBalance {
					debit = amount
				} else {
					credit = amount
				}
			} else if strings.Contains(strings.ToUpper(description), "CREDIT") {
				credit = amount
			} else {
				debit = amount
			}
		}

		w.Write([]string{date, description, debit, credit, balanceText})
		prevBalance = balance
		havePrev = true
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
`
