package common

var (
	depositPrefix  = []byte{0x01}
	withdrawPrefix = []byte{0x02}
)

// DepositTransferDetails returns NEP-17 transfer data attached to the
// transfer-in of a split deposit.
func DepositTransferDetails(recipient1, recipient2 []byte) []byte {
	res := make([]byte, 0, len(depositPrefix)+len(recipient1)+len(recipient2))
	res = append(res, depositPrefix...)
	res = append(res, recipient1...)
	return append(res, recipient2...)
}

// WithdrawTransferDetails returns NEP-17 transfer data attached to the
// transfer-out of a withdrawal.
func WithdrawTransferDetails() []byte {
	return append([]byte(nil), withdrawPrefix...)
}
