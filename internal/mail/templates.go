package mail

import (
	"fmt"

	"github.com/spec-kit/tour-service/internal/domain"
)

// Subjects and bodies for the notification emails the marketplace sends.
// Kept as plain formatted strings; there is no templating engine in play.

func WelcomeSubject() string { return "Welcome to TourApp!" }

func WelcomeBody(username, firstName string) string {
	return fmt.Sprintf(`<html><body>
<h2>Welcome to TourApp, %s!</h2>
<p>Your account <strong>%s</strong> has been created.</p>
<p>You can now browse tours, book them and rate your experiences.</p>
</body></html>`, firstName, username)
}

func BlockedSubject() string { return "Your TourApp account has been blocked" }

func BlockedBody(username string) string {
	return fmt.Sprintf(`<html><body>
<h2>Account blocked</h2>
<p>The account <strong>%s</strong> has been blocked by an administrator.</p>
</body></html>`, username)
}

func UnblockedSubject() string { return "Your TourApp account has been unblocked" }

func UnblockedBody(username string) string {
	return fmt.Sprintf(`<html><body>
<h2>Account unblocked</h2>
<p>The account <strong>%s</strong> is active again. Welcome back!</p>
</body></html>`, username)
}

func PurchaseConfirmationSubject() string { return "Tour purchase confirmation - TourApp" }

func PurchaseConfirmationBody(name, tourName string, finalPrice float64) string {
	return fmt.Sprintf(`<html><body>
<h2>Purchase confirmed</h2>
<p>Dear %s,</p>
<p>You purchased the tour <strong>%s</strong> for %.2f.</p>
<p>Enjoy your tour!</p>
</body></html>`, name, tourName, finalPrice)
}

func CancellationSubject() string { return "Tour cancelled - TourApp" }

func CancellationBody(name, tourName string, refundedPoints int) string {
	return fmt.Sprintf(`<html><body>
<h2>Tour cancelled</h2>
<p>Dear %s,</p>
<p>The tour <strong>%s</strong> you purchased has been cancelled by the guide.</p>
<p>%d bonus points have been added to your account as compensation.</p>
</body></html>`, name, tourName, refundedPoints)
}

func ProblemReportedSubject() string { return "A problem was reported on your tour - TourApp" }

func ProblemReportedBody(guideName, tourName, touristName string) string {
	return fmt.Sprintf(`<html><body>
<h2>Problem reported</h2>
<p>Dear %s,</p>
<p>%s reported a problem on your tour <strong>%s</strong>.</p>
<p>Please review it in your dashboard.</p>
</body></html>`, guideName, touristName, tourName)
}

func ReminderSubject(tourName string) string {
	return fmt.Sprintf("Reminder: your tour '%s' starts in 48 hours", tourName)
}

func ReminderBody(name string, tour *domain.Tour) string {
	return fmt.Sprintf(`<html><body>
<h2>Tour reminder</h2>
<p>Dear %s,</p>
<p>Your tour <strong>%s</strong> takes place on %s.</p>
<ul>
<li><strong>Description:</strong> %s</li>
<li><strong>Category:</strong> %s</li>
<li><strong>Difficulty:</strong> %s</li>
<li><strong>Price:</strong> %.2f</li>
</ul>
<p>Enjoy your tour!</p>
</body></html>`, name, tour.Name, tour.Date.Format("02.01.2006 15:04"),
		tour.Description, tour.Category, tour.Difficulty, tour.Price)
}

func RecommendationSubject(tourName string) string {
	return fmt.Sprintf("New tour matching your interests - %s", tourName)
}

func RecommendationBody(name string, tour *domain.Tour) string {
	return fmt.Sprintf(`<html><body>
<h2>Recommended for you</h2>
<p>Dear %s,</p>
<p>A new %s tour <strong>%s</strong> might interest you.</p>
<p>%s</p>
<p><strong>Date:</strong> %s &mdash; <strong>Price:</strong> %.2f</p>
</body></html>`, name, tour.Category, tour.Name, tour.Description,
		tour.Date.Format("02.01.2006 15:04"), tour.Price)
}
