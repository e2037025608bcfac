package database

const (
	// User queries
	queryInsertUser = `
		INSERT INTO users (id, name, email, gender, birthday, country, city, languages,
		                   education_level, occupation, income_level, interests)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, gender, birthday, country, city, languages,
		       education_level, occupation, income_level, interests, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUsers = `
		SELECT id, name, email
		FROM users
		ORDER BY created_at`

	// Wallet queries
	queryGetWalletByUserId = `
		SELECT id, user_id, balance, total_earn, total_spend, version, updated_at
		FROM wallets
		WHERE user_id = ?`

	queryInsertWallet = `
		INSERT INTO wallets (id, user_id, balance, total_earn, total_spend, version)
		VALUES (?, ?, ?, ?, ?, 1)`

	queryUpdateWallet = `
		UPDATE wallets
		SET balance = ?, total_earn = ?, total_spend = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Payment queries
	queryInsertPayment = `
		INSERT INTO payments (id, user_id, type, amount, currency, transaction_id, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPaymentByReference = `
		SELECT id, user_id, type, amount, currency, transaction_id, status, metadata, created_at, updated_at
		FROM payments
		WHERE transaction_id = ?`

	queryGetPayments = `
		SELECT id, user_id, type, amount, currency, transaction_id, status, metadata, created_at, updated_at
		FROM payments
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryListStalePendingPayments = `
		SELECT id, user_id, type, amount, currency, transaction_id, status, metadata, created_at, updated_at
		FROM payments
		WHERE status = 'pending' AND created_at < ?
		ORDER BY created_at
		LIMIT ?`

	// Conditional transition: only a pending payment may reach a terminal
	// state, and exactly once.
	querySettlePendingPayment = `
		UPDATE payments
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = ? AND status = 'pending'`

	querySettlePendingWithdrawal = `
		UPDATE payments
		SET status = 'success', updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = ? AND type = 'withdraw' AND status = 'pending'`

	queryFailPendingPayments = `
		UPDATE payments
		SET status = 'failed', updated_at = CURRENT_TIMESTAMP
		WHERE transaction_id = ? AND status = 'pending'`

	queryCheckDuplicateReference = `
		SELECT id FROM payments WHERE transaction_id = ? LIMIT 1`

	// Survey queries
	queryInsertSurvey = `
		INSERT INTO surveys (id, creator_id, title, description, reward, participant,
		                     max_participant, status, target, expire_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetSurveyById = `
		SELECT id, creator_id, title, description, reward, participant, max_participant,
		       status, target, expire_date, created_at
		FROM surveys
		WHERE id = ?`

	queryGetLiveSurveysByCreator = `
		SELECT reward, participant, max_participant
		FROM surveys
		WHERE creator_id = ? AND status = 'live'`

	queryInsertQuestion = `
		INSERT INTO questions (id, survey_id, type, label, required, ord)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetSurveyQuestions = `
		SELECT id, survey_id, type, label, required, ord, created_at
		FROM questions
		WHERE survey_id = ?
		ORDER BY ord, created_at`

	// Response queries
	queryInsertResponse = `
		INSERT INTO responses (id, survey_id, user_id) VALUES (?, ?, ?)`

	queryHasResponded = `
		SELECT id FROM responses WHERE survey_id = ? AND user_id = ? LIMIT 1`

	queryInsertAnswer = `
		INSERT INTO answers (id, question_id, user_id, answer) VALUES (?, ?, ?, ?)`

	queryGetSurveyAnswers = `
		SELECT a.id, a.question_id, a.user_id, a.answer, a.created_at
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.survey_id = ?
		ORDER BY a.created_at
		LIMIT ? OFFSET ?`

	queryCountSurveyAnswers = `
		SELECT COUNT(*)
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.survey_id = ?`
)
