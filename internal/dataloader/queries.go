package dataloader

const queryReservations = `
	SELECT
		r.id,
		r.user_id,
		r.facility_id,
		r.reservation_date,
		r.time_slot,
		COALESCE(r.purpose, '') AS purpose,
		r.status,
		r.expected_attendees,
		COALESCE(r.is_commercial, FALSE) AS is_commercial,
		COALESCE(r.auto_approved, FALSE) AS auto_approved,
		r.created_at,
		r.updated_at,
		f.name AS facility_name,
		COALESCE(f.capacity::text, '') AS facility_capacity,
		COALESCE(f.amenities, '') AS facility_amenities,
		f.status AS facility_status,
		u.name AS user_name,
		u.role AS user_role
	FROM reservations r
	JOIN facilities f ON r.facility_id = f.id
	JOIN users u ON r.user_id = u.id
	WHERE 1=1`

const queryFacilities = `
	SELECT
		id,
		name,
		COALESCE(description, '') AS description,
		COALESCE(capacity::text, '') AS capacity,
		COALESCE(amenities, '') AS amenities,
		COALESCE(location, '') AS location,
		latitude,
		longitude,
		status,
		COALESCE(auto_approve, FALSE) AS auto_approve,
		capacity_threshold,
		max_duration_hours,
		created_at,
		updated_at
	FROM facilities
	ORDER BY id`

const queryActiveUsers = `
	SELECT
		id,
		name,
		email,
		role,
		status,
		latitude,
		longitude,
		created_at
	FROM users
	WHERE status = 'active'
	ORDER BY id`

const queryHistoricalConflicts = `
	SELECT
		r1.id AS reservation1_id,
		r1.facility_id,
		r1.reservation_date,
		r1.time_slot AS time_slot1,
		r1.status AS status1,
		r1.user_id AS user1_id,
		r2.id AS reservation2_id,
		r2.time_slot AS time_slot2,
		r2.status AS status2,
		r2.user_id AS user2_id,
		CASE
			WHEN r1.status = 'approved' AND r2.status = 'approved' THEN 1
			ELSE 0
		END AS is_conflict
	FROM reservations r1
	JOIN reservations r2 ON r1.facility_id = r2.facility_id
		AND r1.reservation_date = r2.reservation_date
		AND r1.id < r2.id
	WHERE r1.reservation_date >= $1
		AND r1.status IN ('approved', 'pending')
		AND r2.status IN ('approved', 'pending')
	ORDER BY r1.reservation_date, r1.facility_id`

const queryUserVerification = `
	SELECT id, COALESCE(is_verified, TRUE) AS is_verified
	FROM users`

const queryUserViolations = `
	SELECT user_id, COUNT(*) AS violation_count
	FROM user_violations
	WHERE created_at >= NOW() - ($1 * INTERVAL '1 day')
		AND severity IN ('high', 'critical')
	GROUP BY user_id`

const queryPurposeTexts = `
	SELECT
		id,
		purpose,
		status,
		reservation_date,
		created_at,
		facility_id,
		user_id
	FROM reservations
	WHERE purpose IS NOT NULL AND purpose != ''`

const queryAuditEntries = `
	SELECT
		id,
		action,
		module,
		details,
		created_at,
		user_id
	FROM audit_log
	WHERE module = 'Reservations'
		AND (action ILIKE '%reservation%' OR action ILIKE '%booking%')
		AND details IS NOT NULL`

const queryHistoryNotes = `
	SELECT
		rh.id,
		rh.reservation_id,
		rh.status,
		rh.note,
		rh.created_at,
		COALESCE(r.purpose, '') AS purpose,
		r.status AS reservation_status
	FROM reservation_history rh
	JOIN reservations r ON rh.reservation_id = r.id
	WHERE rh.note IS NOT NULL AND rh.note != ''`
