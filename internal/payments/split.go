package payments

// Split returns the amount each of n freelancers receives from a fixed
// salary: floor(salary / n). The remainder salary mod n is not distributed
// anywhere. n must be > 0; callers treat n == 0 as zero transfers.
func Split(salary int64, n int) int64 {
	return salary / int64(n)
}
