package services

import (
	"errors"

	"fees-service/internal/models"
)

// FeeService assembles the fee-details view for an authenticated student.
type FeeService struct {
	Fees         FeeStore
	Students     StudentStore
	Transactions TransactionStore
}

func NewFeeService(fees FeeStore, students StudentStore, transactions TransactionStore) *FeeService {
	return &FeeService{Fees: fees, Students: students, Transactions: transactions}
}

type FeeDetails struct {
	HasFee      bool
	Fee         *models.Fee
	Student     *models.Student
	LastPayment *models.Transaction
}

// Details returns the student's fee for the current academic year plus their
// most recent successful payment. A student without a fee record is a normal
// outcome, not an error.
func (s *FeeService) Details(studentID uint) (*FeeDetails, error) {
	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	fee, err := s.Fees.FindByStudentYear(studentID, CurrentAcademicYear())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &FeeDetails{HasFee: false, Student: student}, nil
		}
		return nil, err
	}

	last, err := s.Transactions.LastSuccessForStudent(studentID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return &FeeDetails{
		HasFee:      true,
		Fee:         fee,
		Student:     student,
		LastPayment: last,
	}, nil
}
