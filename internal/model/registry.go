package model

// All lists every table AutoMigrate manages, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&PasswordResetToken{},
		&EmailVerificationToken{},
		&Subscription{},
		&SubscriptionAudit{},
		&Payment{},
		&Invoice{},
	}
}
