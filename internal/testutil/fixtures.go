package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/aegis/pkg/dataset"
)

// Loan dataset columns.
const (
	LoanTarget = "loan_approved"
	LoanRows   = 100
)

// LoanFeatures are the model inputs of the loan dataset.
var LoanFeatures = []string{"income", "credit_score"}

// LoanProtected are the protected attributes of the loan dataset.
var LoanProtected = []string{"gender", "race"}

var (
	loanIncome   = []int64{70000, 80000, 30000, 45000, 120000, 25000, 95000, 55000, 62000, 38000}
	loanCredit   = []int64{720, 650, 580, 690, 800, 550, 750, 610, 640, 600}
	loanRace     = []string{"White", "White", "White", "White", "Black", "Black", "Black", "Black", "Hispanic", "Asian"}
	loanApproved = []int64{1, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1, 1, 0, 0, 1, 0, 1, 0, 1, 0}
)

// loanRecords returns the 100-row loan dataset, mildly biased by gender.
func loanRecords() [][]any {
	records := make([][]any, LoanRows)
	for i := range records {
		gender := "Male"
		if i%10 >= 5 {
			gender = "Female"
		}
		records[i] = []any{
			loanIncome[i%10],
			loanCredit[i%10],
			gender,
			loanRace[i%10],
			loanApproved[i%20],
		}
	}
	return records
}

// LoanHeader is the column order of LoanFrame and WriteLoanCSV.
var LoanHeader = []string{"income", "credit_score", "gender", "race", LoanTarget}

// LoanFrame returns the loan dataset as a Frame.
func LoanFrame(t testing.TB) *dataset.Frame {
	t.Helper()
	f, err := dataset.FromRecords(LoanHeader, loanRecords())
	if err != nil {
		t.Fatalf("failed to build loan frame: %v", err)
	}
	return f
}

// WriteLoanCSV writes the loan dataset to dir/loans.csv and returns the path.
func WriteLoanCSV(t testing.TB, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(LoanHeader, ","))
	b.WriteString("\n")
	for _, rec := range loanRecords() {
		cells := make([]string, len(rec))
		for i, c := range rec {
			cells[i] = fmt.Sprint(c)
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	path := filepath.Join(dir, "loans.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("failed to write loans.csv: %v", err)
	}
	return path
}
