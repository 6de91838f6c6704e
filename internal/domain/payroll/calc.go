package payroll

// Statutory parameters for the monthly payroll run. Hourly rate derives
// from a 176-hour working month (22 days x 8 hours).
const (
	HoursPerMonth      = 176.0
	OvertimeMultiplier = 1.5
	SocialSecurityRate = 0.05
	SocialSecurityCap  = 750.0
	TaxRate            = 0.05
)

// Compute derives the monthly breakdown from the base salary and the
// approved overtime hours. Social security is capped, and tax applies to
// the base net of social security, never below zero.
func Compute(baseSalary, overtimeHours float64) Breakdown {
	hourlyRate := baseSalary / HoursPerMonth
	overtimePay := overtimeHours * OvertimeMultiplier * hourlyRate

	socialSecurity := baseSalary * SocialSecurityRate
	if socialSecurity > SocialSecurityCap {
		socialSecurity = SocialSecurityCap
	}

	taxable := baseSalary - socialSecurity
	if taxable < 0 {
		taxable = 0
	}
	tax := taxable * TaxRate

	gross := baseSalary + overtimePay
	deductions := socialSecurity + tax

	return Breakdown{
		BaseSalary:      baseSalary,
		HourlyRate:      hourlyRate,
		OvertimeHours:   overtimeHours,
		OvertimePay:     overtimePay,
		GrossSalary:     gross,
		SocialSecurity:  socialSecurity,
		Tax:             tax,
		TotalDeductions: deductions,
		NetSalary:       gross - deductions,
	}
}
