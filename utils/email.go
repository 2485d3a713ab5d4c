// utils/email.go
package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

func sendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// SendOTPEmail delivers the verification code for a new registration.
func SendOTPEmail(to, fullName, otp string) error {
	subject := "Verify your Clinora account"
	body := fmt.Sprintf("Dear %s,\n\nYour verification code is: %s\n\nThe code expires in 10 minutes. If you did not create a Clinora account, you can ignore this email.\n\nBest regards,\nThe Clinora Team", fullName, otp)
	return sendEmail(to, subject, body)
}

// SendPasswordResetEmail delivers the code that authorizes a password reset.
func SendPasswordResetEmail(to, fullName, otp string) error {
	subject := "Reset your Clinora password"
	body := fmt.Sprintf("Dear %s,\n\nYour password reset code is: %s\n\nThe code expires in 15 minutes. If you did not request a reset, you can ignore this email; your password is unchanged.\n\nBest regards,\nThe Clinora Team", fullName, otp)
	return sendEmail(to, subject, body)
}

// SendPaymentReceiptEmail confirms a completed subscription payment.
func SendPaymentReceiptEmail(to, fullName, planName string, amountMinor int64, currency, receipt string) error {
	subject := "Your Clinora subscription is active"
	body := fmt.Sprintf("Dear %s,\n\nWe received your payment of %s for the %s plan. Your subscription is now active.\n\nReceipt: %s\n\nBest regards,\nThe Clinora Team", fullName, FormatAmount(amountMinor, currency), planName, receipt)
	if err := sendEmail(to, subject, body); err != nil {
		log.Printf("Failed to send receipt email to %s: %v", to, err)
		return err
	}
	return nil
}

// SendManualReviewEmail tells the clinic owner the outcome of a manual
// payment review. Reason is only shown on rejection.
func SendManualReviewEmail(to, fullName, planName string, approved bool, reason string) error {
	var subject, body string
	if approved {
		subject = "Your Clinora payment was approved"
		body = fmt.Sprintf("Dear %s,\n\nYour bank transfer for the %s plan has been reviewed and approved. Your subscription is now active.\n\nBest regards,\nThe Clinora Team", fullName, planName)
	} else {
		subject = "Your Clinora payment was rejected"
		body = fmt.Sprintf("Dear %s,\n\nYour bank transfer for the %s plan could not be verified and was rejected.\n\nReason: %s\n\nYou can submit a new payment from your dashboard.\n\nBest regards,\nThe Clinora Team", fullName, planName, reason)
	}
	if err := sendEmail(to, subject, body); err != nil {
		log.Printf("Failed to send review email to %s: %v", to, err)
		return err
	}
	return nil
}
