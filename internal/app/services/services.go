package services

// Services defined in this package:
// - AuthService: Verifies credentials and issues access tokens
// - DashboardService: Aggregates the role-scoped dashboard payload
// - InternshipService: Internship CRUD and the lifecycle state machine
// - SweepService: Periodic anomaly sweep (overdue tasks, stalled internships)
// - ObligationService: Raises deduplicated follow-up obligations
// - AlertService: Lets recipients read and clear their obligations
