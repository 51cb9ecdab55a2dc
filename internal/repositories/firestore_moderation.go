package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/campus-p2p/backend/internal/models"
)

func (s *FirestoreStore) reportsQuery() firestore.Query {
	return s.reports().OrderBy("createdAt", firestore.Asc)
}

// ListReports retrieves every report, oldest first
func (s *FirestoreStore) ListReports(ctx context.Context) ([]models.Report, error) {
	docs, err := s.reportsQuery().Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("list reports", "Report", "", err)
	}
	reports, err := decodeAll(docs, setReportID)
	return reports, models.AsPersistence("decode reports", err)
}

// ListReportsForPost retrieves the reports referencing postID
func (s *FirestoreStore) ListReportsForPost(ctx context.Context, postID string) ([]models.Report, error) {
	docs, err := s.reports().Where("postId", "==", postID).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("list reports", "Post", postID, err)
	}
	reports, err := decodeAll(docs, setReportID)
	return reports, models.AsPersistence("decode reports", err)
}

// DeleteReports removes the given reports.
func (s *FirestoreStore) DeleteReports(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.reports().Doc(id))
	}
	n, err := s.bulkDelete(ctx, refs)
	return n, translate("delete reports", "Report", "", err)
}

// SubscribeReports streams every report.
func (s *FirestoreStore) SubscribeReports(ctx context.Context, fn SnapshotFunc[models.Report], onErr ErrorFunc) (Subscription, error) {
	return watchQuery(ctx, s.reportsQuery(), setReportID, fn, onErr), nil
}

// FlagPost stores the report and sets the post to reported in one transaction.
func (s *FirestoreStore) FlagPost(ctx context.Context, report *models.Report) error {
	postRef := s.posts().Doc(report.PostID)
	var reportRef *firestore.DocumentRef
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		post, err := s.checkedPost(tx, postRef, nil)
		if err != nil {
			return err
		}
		reportRef = s.reports().NewDoc()
		if err := tx.Create(reportRef, report); err != nil {
			return err
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "status", Value: post.StatusAfterReport()},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return translate("flag post", "Post", report.PostID, err)
	}
	report.ID = reportRef.ID
	return nil
}

// ReinstatePost ends the review and deletes the post's reports in one transaction.
func (s *FirestoreStore) ReinstatePost(ctx context.Context, postID string, check PostCheck) (int, error) {
	postRef := s.posts().Doc(postID)
	removed := 0
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		post, err := s.checkedPost(tx, postRef, check)
		if err != nil {
			return err
		}
		reportDocs, err := tx.Documents(s.reports().Where("postId", "==", post.ID)).GetAll()
		if err != nil {
			return err
		}
		if err := tx.Update(postRef, []firestore.Update{
			{Path: "status", Value: post.StatusAfterReview()},
			{Path: "updatedAt", Value: firestore.Delete},
		}); err != nil {
			return err
		}
		for _, doc := range reportDocs {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		removed = len(reportDocs)
		return nil
	})
	if err != nil {
		return 0, translate("reinstate post", "Post", postID, err)
	}
	return removed, nil
}

// HidePost takes the post out of every public list. Reports are kept.
func (s *FirestoreStore) HidePost(ctx context.Context, postID string, check PostCheck) error {
	postRef := s.posts().Doc(postID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := s.checkedPost(tx, postRef, check); err != nil {
			return err
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "status", Value: models.StatusHidden},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	return translate("hide post", "Post", postID, err)
}

// PurgePost deletes the post, its answers and its reports in one transaction.
func (s *FirestoreStore) PurgePost(ctx context.Context, postID string, check PostCheck) (int, error) {
	postRef := s.posts().Doc(postID)
	removed := 0
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := s.checkedPost(tx, postRef, check); err != nil {
			return err
		}
		reportDocs, err := tx.Documents(s.reports().Where("postId", "==", postID)).GetAll()
		if err != nil {
			return err
		}
		answerDocs, err := tx.Documents(postRef.Collection(answersCollection)).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range append(reportDocs, answerDocs...) {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		removed = len(reportDocs)
		return tx.Delete(postRef)
	})
	if err != nil {
		return 0, translate("delete post", "Post", postID, err)
	}
	return removed, nil
}

// PurgeAllPosts deletes every post with its answers, then every report.
func (s *FirestoreStore) PurgeAllPosts(ctx context.Context) (int, error) {
	postDocs, err := s.posts().Documents(ctx).GetAll()
	if err != nil {
		return 0, translate("list posts", "Post", "", err)
	}
	var refs []*firestore.DocumentRef
	for _, doc := range postDocs {
		answerRefs, err := doc.Ref.Collection(answersCollection).DocumentRefs(ctx).GetAll()
		if err != nil {
			return 0, translate("list answers", "Post", doc.Ref.ID, err)
		}
		refs = append(refs, answerRefs...)
		refs = append(refs, doc.Ref)
	}
	reportRefs, err := s.reports().DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, translate("list reports", "Report", "", err)
	}
	refs = append(refs, reportRefs...)

	if _, err := s.bulkDelete(ctx, refs); err != nil {
		return 0, translate("delete all posts", "Post", "", err)
	}
	return len(postDocs), nil
}

func (s *FirestoreStore) checkedPost(tx *firestore.Transaction, ref *firestore.DocumentRef, check PostCheck) (*models.Post, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		return nil, translate("load post", "Post", ref.ID, err)
	}
	post, err := decodePost(snap)
	if err != nil {
		return nil, err
	}
	return post, runCheck(check, post)
}

// bulkDelete removes refs through a BulkWriter and reports the first failure.
func (s *FirestoreStore) bulkDelete(ctx context.Context, refs []*firestore.DocumentRef) (int, error) {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return 0, err
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}
