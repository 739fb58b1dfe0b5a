package world

func (w *World) audit(tick uint64, actor, action string, x, y float64, reason string) {
	e := AuditEntry{
		Tick:   tick,
		Actor:  actor,
		Action: action,
		Pos:    [2]float64{x, y},
		Reason: reason,
	}
	w.auditsThisTick = append(w.auditsThisTick, e)
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(e)
	}
}
